package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/helml-lang/go-helml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, contentType, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(b))
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestDecode(t *testing.T) {
	ts := newTestServer(t, Options{Config: helml.DefaultConfig()})

	f := func(name, path, body string, code int, expected ...string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, out := post(t, ts, path, "text/plain", body)
			assert.Equal(t, code, got, out)
			for _, e := range expected {
				assert.Contains(t, out, e)
			}
		})
	}

	f("json", "/v1/decode", "name: John\nage:  25\n", http.StatusOK,
		"{\n  \"name\": \"John\",\n  \"age\": 25\n}\n")
	f("layers", "/v1/decode?layers=0,prod", "a:  1\n-+: prod\na:  2", http.StatusOK,
		`"a": 2`, `"_layers": [`, `"prod"`)
	f("yaml", "/v1/decode?format=yaml", "name: John\nok:  T", http.StatusOK,
		"name: John\n", "ok: true\n")
	f("url_dialect", "/v1/decode", "~a.==1~", http.StatusOK, `"a": 1`)
	f("bad_format", "/v1/decode?format=xml", "a: 1", http.StatusBadRequest, "unknown format")
}

func TestEncode(t *testing.T) {
	ts := newTestServer(t, Options{Config: helml.DefaultConfig()})

	f := func(name, path, body string, code int, expected string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, out := post(t, ts, path, "application/json", body)
			assert.Equal(t, code, got, out)
			if code == http.StatusOK {
				assert.Equal(t, expected, out)
			} else {
				assert.Contains(t, out, expected)
			}
		})
	}

	f("multi", "/v1/encode", `{"name":"John","age":25}`, http.StatusOK, "name: John\nage:  25")
	f("url", "/v1/encode?mode=url", `{"name":"John","age":25}`, http.StatusOK, "~name.=John~age.==25~")
	f("list", "/v1/encode?mode=one", `[1,"x"]`, http.StatusOK, "~--:  1~--: x~~#: ~")
	f("yaml", "/v1/encode?format=yaml", "b: 1\na: x\n", http.StatusOK, "b:  1\na: x")
	f("scalar", "/v1/encode", `"x"`, http.StatusBadRequest, "map or list")
	f("bad_json", "/v1/encode", `{"a":`, http.StatusBadRequest, "")
	f("bad_mode", "/v1/encode?mode=xml", `{}`, http.StatusBadRequest, "unknown mode")
}

func TestVC85(t *testing.T) {
	ts := newTestServer(t, Options{})
	payload := strings.Repeat("binary \x00\xff payload ", 50)

	for _, method := range []string{"", "none", "zstd", "kanzi"} {
		t.Run("compress="+method, func(t *testing.T) {
			q := url.Values{"alphabet": {"3"}, "width": {"40"}, "compress": {method}}
			code, enc := post(t, ts, "/v1/vc85/encode?"+q.Encode(), "application/octet-stream", payload)
			require.Equal(t, http.StatusOK, code, enc)
			assert.True(t, strings.HasPrefix(enc, "<~"))
			assert.True(t, strings.HasSuffix(enc, "~>"))

			code, dec := post(t, ts, "/v1/vc85/decode?compress="+method, "text/plain", enc)
			require.Equal(t, http.StatusOK, code, dec)
			assert.Equal(t, payload, dec)
		})
	}

	code, enc := post(t, ts, "/v1/vc85/encode?delim=none&width=0", "", "hello")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, enc, "~")

	code, enc = post(t, ts, "/v1/vc85/encode?compress=zstd", "", "hello")
	require.Equal(t, http.StatusOK, code)
	code, _ = post(t, ts, "/v1/vc85/decode?compress=kanzi", "", enc)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = post(t, ts, "/v1/vc85/encode?alphabet=9", "", "x")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = post(t, ts, "/v1/vc85/encode?compress=gzip", "", "x")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = post(t, ts, "/v1/vc85/decode", "", "<~\x01~>")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, Options{Verbose: 1})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "HELML playground")
	assert.NotContains(t, string(b), `id="json"`)

	resp, err = http.PostForm(ts.URL+"/", url.Values{"doc": {"a:  1"}})
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `id="json"`)
	assert.Contains(t, string(b), "&#34;a&#34;: 1")
	assert.Contains(t, string(b), "~a.==1~")
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, Options{MaxBody: 8})
	code, _ := post(t, ts, "/v1/decode", "text/plain", strings.Repeat("a: 1\n", 10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	ts := newTestServer(t, Options{})
	code, out := post(t, ts, "/v1/encode", "application/json", `[1,"x"]`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "--:  1\n--: x", out)
}
