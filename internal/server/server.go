// Package server exposes the HELML codecs over HTTP.
package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-sprout/sprout"
	"github.com/helml-lang/go-helml"
	"github.com/helml-lang/go-helml/internal/convert"
	"github.com/helml-lang/go-helml/internal/pack"
	"github.com/helml-lang/go-helml/vc85"
)

// DefaultMaxBody limits request bodies when Options.MaxBody is zero.
const DefaultMaxBody = 16 << 20

//go:embed templates/*.gohtml
var templatesFS embed.FS

// Options configures a Server.
type Options struct {
	// Config is used for encoding and decoding. The zero Config selects
	// helml.DefaultConfig.
	Config  helml.Config
	Verbose int
	MaxBody int64
	Logger  *slog.Logger
}

// Server transcodes HELML documents over HTTP.
type Server struct {
	codec   *helml.Codec
	verbose int
	maxBody int64
	log     *slog.Logger
	tpl     *template.Template
}

// New returns a Server configured by opts, with its templates parsed.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if reflect.ValueOf(cfg).IsZero() {
		cfg = helml.DefaultConfig()
	}
	s := &Server{
		codec:   helml.New(cfg),
		verbose: opts.Verbose,
		maxBody: opts.MaxBody,
		log:     opts.Logger,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	sub, _ := fs.Sub(templatesFS, "templates")
	sh := sprout.New()
	funcs := sh.Build()
	funcs["modes"] = func() []helml.Mode { return []helml.Mode{helml.MultiLine, helml.OneLine, helml.URL} }
	funcs["json"] = func(c *helml.Container) (string, error) {
		var buf bytes.Buffer
		err := convert.ToJSON(&buf, helml.Of(c), "  ")
		return buf.String(), err
	}
	funcs["encode"] = func(c *helml.Container, m helml.Mode) (string, error) {
		return s.codec.Encode(c, m)
	}
	tpl, err := template.New("base").Funcs(funcs).ParseFS(sub, "*.gohtml")
	if err != nil {
		return nil, err
	}
	s.tpl = tpl
	return s, nil
}

// Router returns the HTTP handler serving the playground and the /v1 API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.verbose > 0 {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Post("/", s.index)
	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/decode", s.decode)
		r.Post("/encode", s.encode)
		r.Post("/vc85/encode", s.vc85Encode)
		r.Post("/vc85/decode", s.vc85Decode)
	})
	return r
}

// index handles GET and POST "/". A posted form is decoded and shown back
// as JSON and in every output mode.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "HELML playground", "Doc": "", "Layers": ""}
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		doc := r.FormValue("doc")
		layers := splitList(r.FormValue("layers"))
		data["Doc"] = doc
		data["Layers"] = strings.Join(layers, ",")
		root, err := s.codec.Decode(doc, layers...)
		if err != nil {
			data["Error"] = err.Error()
		} else {
			data["Root"] = root
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.ExecuteTemplate(w, "index.gohtml", data); err != nil {
		s.log.Error("render index", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// decode handles POST /v1/decode?layers=a,b&format=json|yaml.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	layers := splitList(q.Get("layers"))

	root, err := s.codec.Decode(body, layers...)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}
	s.log.Debug("decoded document", "bytes", len(body), "keys", root.Len(), "layers", layers)

	switch format := strings.ToLower(q.Get("format")); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := convert.ToJSON(w, helml.Of(root), "  "); err != nil {
			s.log.Error("write json", "error", err)
		}
	case "yaml":
		out, err := convert.ToYAML(helml.Of(root))
		if err != nil {
			s.fail(w, r, err, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(out)
	default:
		s.fail(w, r, fmt.Errorf("unknown format %q", format), http.StatusBadRequest)
	}
}

// encode handles POST /v1/encode?mode=multi|one|url&format=json|yaml. The
// body holds the tree in the given format and must be an object or array.
func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	mode, err := helml.ParseMode(q.Get("mode"))
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	var v helml.Value
	switch format := strings.ToLower(q.Get("format")); format {
	case "", "json":
		v, err = convert.FromJSON(bytes.NewReader(body))
	case "yaml":
		v, err = convert.FromYAML(body)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	out, err := s.codec.Encode(v.Container(), mode)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}
	s.log.Debug("encoded document", "mode", mode, "bytes", len(out))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// vc85Encode handles POST /v1/vc85/encode. The raw body is optionally
// packed and returned as vc85 text.
func (s *Server) vc85Encode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	enc, method, err := encodingFromQuery(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}
	if method != pack.None {
		if body, err = pack.Pack(method, body); err != nil {
			s.fail(w, r, err, http.StatusBadRequest)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, enc.EncodeToString(body))
}

// vc85Decode handles POST /v1/vc85/decode?compress=zstd|kanzi.
func (s *Server) vc85Decode(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	method, err := pack.ParseMethod(r.URL.Query().Get("compress"))
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}
	out, err := vc85.Decode(string(body))
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}
	if method != pack.None {
		var got pack.Method
		out, got, err = pack.Unpack(out)
		if err == nil && got != method {
			err = fmt.Errorf("payload is packed with %s, not %s", got, method)
		}
		if err != nil {
			s.fail(w, r, err, http.StatusBadRequest)
			return
		}
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(out)
}

func encodingFromQuery(r *http.Request) (*vc85.Encoding, pack.Method, error) {
	q := r.URL.Query()
	alphabet := vc85.DefaultAlphabet
	if v := q.Get("alphabet"); v != "" {
		a, err := vc85.ParseAlphabet(v)
		if err != nil {
			return nil, "", err
		}
		alphabet = a
	}
	width := vc85.DefaultWidth
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "", fmt.Errorf("bad width %q", v)
		}
		width = n
	}
	delim := vc85.Angle
	if q.Has("delim") {
		d, err := vc85.ParseDelimiter(q.Get("delim"))
		if err != nil {
			return nil, "", err
		}
		delim = d
	}
	method, err := pack.ParseMethod(q.Get("compress"))
	if err != nil {
		return nil, "", err
	}
	return vc85.NewEncoding(alphabet).WithWidth(width).WithDelimiter(delim), method, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		s.fail(w, r, err, code)
		return nil, false
	}
	return body, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, code int) {
	s.log.Debug("request failed", "path", r.URL.Path, "status", code, "error", err,
		"request_id", middleware.GetReqID(r.Context()))
	http.Error(w, err.Error(), code)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
