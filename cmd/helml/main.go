package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/helml-lang/go-helml"
	"github.com/helml-lang/go-helml/internal/server"
	flag "github.com/spf13/pflag"
)

// version is set at build time via -ldflags; defaults to dev.
var version = "dev"

func main() {
	var (
		o           options
		showVersion bool
	)

	flag.StringVar(&o.mode, "mode", "multi", "output mode for encode and fmt: multi, one or url")
	flag.StringVar(&o.format, "format", "json", "tree format: json or yaml (dump is accepted by decode)")
	flag.StringSliceVar(&o.layers, "layers", nil, "layers to keep when decoding (default 0)")
	flag.BoolVar(&o.diff, "diff", false, "fmt: print a unified diff instead of the formatted document")
	flag.StringVar(&o.alphabet, "alphabet", "vwx", "vc85 alphabet: 1..4 or ascii85, vwx, vc85, vc85-cp1251")
	flag.IntVar(&o.width, "width", 75, "vc85 line width in symbols, 0 disables wrapping")
	flag.StringVar(&o.delim, "delim", "angle", "vc85 delimiters: angle, brace or none")
	flag.StringVar(&o.compress, "compress", "none", "compress vc85 payloads with none, zstd or kanzi")
	flag.StringVar(&o.sections, "sections", "", "comma-separated sections to load before decoding")
	flag.BoolVar(&o.sectOpts.OnlyFirst, "only-first", false, "sections: take each section once")
	flag.BoolVar(&o.sectOpts.Comments, "comments", false, "sections: mark section boundaries with comments")
	flag.StringVar(&o.sectOpts.Prefix, "prefix", "", "sections: only read lines with this prefix")
	flag.StringVar(&o.addr, "addr", "127.0.0.1:8285", "serve: listen address (host:port)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.CountVarP(&o.verbose, "verbose", "v", "increase verbosity; repeat for more detail")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: helml [options] <command> [file]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		for _, c := range commands {
			fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.help)
		}
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if o.verbose > 0 {
		level = slog.LevelDebug
	}
	o.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	name := flag.Arg(0)
	if name == "serve" {
		s, err := server.New(server.Options{Config: helml.DefaultConfig(), Verbose: o.verbose, Logger: o.log})
		if err != nil {
			log.Fatalf("init: %v", err)
		}
		o.log.Info("listening", "addr", "http://"+o.addr, "version", version)
		if err := httpListenAndServe(o.addr, s.Router()); err != nil {
			log.Fatalf("server: %v", err)
		}
		return
	}

	if err := run(name, flag.Arg(1), &o, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%s: %v", name, err)
	}
}

// httpListenAndServe exists to facilitate testing/mocking if desired.
var httpListenAndServe = func(addr string, h http.Handler) error {
	return http.ListenAndServe(addr, h)
}
