// Package pack compresses binary payloads before they are vc85 encoded.
//
// A packed payload starts with a one-line method tag ("zstd\n", "kanzi\n"
// or "none\n") so Unpack needs no options.
package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	kio "github.com/flanglet/kanzi-go/v2/io"
	"github.com/klauspost/compress/zstd"
)

// Method names a compression method.
type Method string

const (
	None  Method = "none"
	Zstd  Method = "zstd"
	Kanzi Method = "kanzi"
)

// ErrUnknownMethod is returned for a method name or tag that is not one of
// None, Zstd or Kanzi.
var ErrUnknownMethod = errors.New("pack: unknown method")

// kanzi block size bounds.
const (
	minKanziBlock = 1024
	maxKanziBlock = 4 << 20
)

// ParseMethod maps a flag or query value to a Method. The empty string
// selects None.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return None, nil
	case None, Zstd, Kanzi:
		return m, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMethod, s)
}

// Pack compresses src with m and prefixes the method tag.
func Pack(m Method, src []byte) ([]byte, error) {
	var body []byte
	var err error

	switch m {
	case None, "":
		m = None
		body = src
	case Zstd:
		body, err = zstdCompress(src)
	case Kanzi:
		body, err = kanziCompress(src)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, m)
	}
	if err != nil {
		return nil, fmt.Errorf("pack: %s: %w", m, err)
	}

	out := make([]byte, 0, len(m)+1+len(body))
	out = append(out, string(m)...)
	out = append(out, '\n')
	return append(out, body...), nil
}

// Unpack reads the method tag of data and returns the decompressed payload
// together with the method that produced it.
func Unpack(data []byte) ([]byte, Method, error) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return nil, "", fmt.Errorf("%w: missing tag", ErrUnknownMethod)
	}
	m := Method(data[:i])
	body := data[i+1:]

	var out []byte
	var err error
	switch m {
	case None:
		out = body
	case Zstd:
		out, err = zstdDecompress(body)
	case Kanzi:
		out, err = kanziDecompress(body)
	default:
		return nil, "", fmt.Errorf("%w %q", ErrUnknownMethod, m)
	}
	if err != nil {
		return nil, m, fmt.Errorf("pack: %s: %w", m, err)
	}
	return out, m, nil
}

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdEnc, zstdDec, zstdErr
}

func zstdCompress(src []byte) ([]byte, error) {
	enc, _, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, nil), nil
}

func zstdDecompress(src []byte) ([]byte, error) {
	_, dec, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(src, nil)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func kanziBlockSize(n int) uint {
	n = (n + 15) &^ 15
	switch {
	case n < minKanziBlock:
		return minKanziBlock
	case n > maxKanziBlock:
		return maxKanziBlock
	}
	return uint(n)
}

func kanziCompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := kio.NewWriterWithCtx(nopWriteCloser{&buf}, map[string]any{
		"entropy":   "ANS0",
		"transform": "TEXT+LZ",
		"blockSize": kanziBlockSize(len(src)),
		"jobs":      uint(1),
		"checksum":  true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func kanziDecompress(src []byte) ([]byte, error) {
	r, err := kio.NewReaderWithCtx(io.NopCloser(bytes.NewReader(src)), map[string]any{
		"jobs": uint(1),
	})
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, r.Close()
}
