package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/helml-lang/go-helml"
	"github.com/helml-lang/go-helml/internal/convert"
	"github.com/helml-lang/go-helml/internal/pack"
	"github.com/helml-lang/go-helml/sections"
	"github.com/helml-lang/go-helml/vc85"
	"github.com/pmezard/go-difflib/difflib"
)

type options struct {
	mode     string
	format   string
	layers   []string
	diff     bool
	alphabet string
	width    int
	delim    string
	compress string
	sections string
	sectOpts sections.Options
	addr     string
	verbose  int
	log      *slog.Logger
}

type command struct {
	name string
	help string
	run  func(o *options, src []byte, name string, out io.Writer) error
}

var commands = []command{
	{"decode", "decode HELML and print the tree as json, yaml or dump", decodeCmd},
	{"encode", "read a json or yaml tree and print it as HELML", encodeCmd},
	{"fmt", "re-encode a HELML document in the chosen mode", fmtCmd},
	{"vc85-encode", "print the input bytes as vc85 text", vc85EncodeCmd},
	{"vc85-decode", "decode vc85 text back to bytes", vc85DecodeCmd},
	{"sections", "print the named sections of a HELML file", sectionsCmd},
	{"serve", "run the HTTP transcoding service", nil},
}

var spewConfig = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

// run executes the command cmd on file, or on stdin when file is empty or
// "-", and writes the result to out.
func run(cmd, file string, o *options, stdin io.Reader, out io.Writer) error {
	var c *command
	for i := range commands {
		if commands[i].name == cmd && commands[i].run != nil {
			c = &commands[i]
		}
	}
	if c == nil {
		return fmt.Errorf("unknown command %q", cmd)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	name := file
	var src []byte
	var err error
	if file == "" || file == "-" {
		name = "<stdin>"
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(file)
	}
	if err != nil {
		return err
	}
	o.log.Debug("read input", "file", name, "bytes", len(src))
	return c.run(o, src, name, out)
}

// decodeInput decodes src, first narrowing it to the requested sections.
func decodeInput(o *options, src []byte) (*helml.Container, error) {
	if o.sections == "" {
		return helml.Decode(src, o.layers...)
	}
	lines, err := sections.Load(bytes.NewReader(src), sections.ParseNames(o.sections), o.sectOpts)
	if err != nil {
		return nil, err
	}
	o.log.Debug("loaded sections", "names", o.sections, "lines", len(lines))
	return helml.Decode(lines, o.layers...)
}

func decodeCmd(o *options, src []byte, _ string, out io.Writer) error {
	root, err := decodeInput(o, src)
	if err != nil {
		return err
	}

	switch strings.ToLower(o.format) {
	case "json":
		return convert.ToJSON(out, helml.Of(root), "  ")
	case "yaml":
		b, err := convert.ToYAML(helml.Of(root))
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	case "dump":
		spewConfig.Fdump(out, helml.ToAny(helml.Of(root)))
		return nil
	}
	return fmt.Errorf("unknown format %q", o.format)
}

func encodeCmd(o *options, src []byte, _ string, out io.Writer) error {
	mode, err := helml.ParseMode(o.mode)
	if err != nil {
		return err
	}

	var v helml.Value
	switch strings.ToLower(o.format) {
	case "json":
		v, err = convert.FromJSON(bytes.NewReader(src))
	case "yaml":
		v, err = convert.FromYAML(src)
	default:
		err = fmt.Errorf("unknown format %q", o.format)
	}
	if err != nil {
		return err
	}

	return helml.New(helml.DefaultConfig()).NewEncoder(out).SetMode(mode).Encode(v)
}

func fmtCmd(o *options, src []byte, name string, out io.Writer) error {
	mode, err := helml.ParseMode(o.mode)
	if err != nil {
		return err
	}
	root, err := decodeInput(o, src)
	if err != nil {
		return err
	}
	formatted, err := helml.New(helml.DefaultConfig()).Encode(root, mode)
	if err != nil {
		return err
	}
	formatted += "\n"

	if !o.diff {
		_, err = io.WriteString(out, formatted)
		return err
	}
	return difflib.WriteUnifiedDiff(out, difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(src)),
		B:        difflib.SplitLines(formatted),
		FromFile: name,
		ToFile:   name + " (formatted)",
		Context:  3,
	})
}

func vc85EncodeCmd(o *options, src []byte, _ string, out io.Writer) error {
	alphabet, err := vc85.ParseAlphabet(o.alphabet)
	if err != nil {
		return err
	}
	delim, err := vc85.ParseDelimiter(o.delim)
	if err != nil {
		return err
	}
	method, err := pack.ParseMethod(o.compress)
	if err != nil {
		return err
	}
	if method != pack.None {
		n := len(src)
		if src, err = pack.Pack(method, src); err != nil {
			return err
		}
		o.log.Debug("packed payload", "method", method, "in", n, "out", len(src))
	}

	enc := vc85.NewEncoding(alphabet).WithWidth(o.width).WithDelimiter(delim)
	_, err = fmt.Fprintln(out, enc.EncodeToString(src))
	return err
}

func vc85DecodeCmd(o *options, src []byte, _ string, out io.Writer) error {
	method, err := pack.ParseMethod(o.compress)
	if err != nil {
		return err
	}
	b, err := vc85.Decode(string(src))
	if err != nil {
		return err
	}
	if method != pack.None {
		var got pack.Method
		b, got, err = pack.Unpack(b)
		if err != nil {
			return err
		}
		if got != method {
			return errors.New("payload is packed with " + string(got) + ", not " + string(method))
		}
	}
	_, err = out.Write(b)
	return err
}

func sectionsCmd(o *options, src []byte, _ string, out io.Writer) error {
	lines, err := sections.Load(bytes.NewReader(src), sections.ParseNames(o.sections), o.sectOpts)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	return nil
}
