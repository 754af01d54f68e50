package jets

import (
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec is a whole-stream compression scheme chosen by file extension.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecBrotli
	CodecZstd
	CodecGzip
	CodecSnappy
)

var codecExt = [...]string{
	CodecNone:   "",
	CodecBrotli: ".br",
	CodecZstd:   ".zst",
	CodecGzip:   ".gz",
	CodecSnappy: ".sz",
}

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecBrotli:
		return "brotli"
	case CodecZstd:
		return "zstd"
	case CodecGzip:
		return "gzip"
	case CodecSnappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// Ext returns the file extension that selects c.
func (c Codec) Ext() string {
	if int(c) < len(codecExt) {
		return codecExt[c]
	}
	return ""
}

// CodecFor picks the codec for path from its extension.
func CodecFor(path string) Codec {
	lower := strings.ToLower(path)
	for c := CodecBrotli; int(c) < len(codecExt); c++ {
		if strings.HasSuffix(lower, codecExt[c]) {
			return c
		}
	}
	return CodecNone
}

// StripCodecExt removes a compression extension from path, if present.
func StripCodecExt(path string) string {
	if c := CodecFor(path); c != CodecNone {
		return path[:len(path)-len(c.Ext())]
	}
	return path
}

// Decompress wraps r with the decoder for c.
func Decompress(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "zstd reader")
		}
		return zstdReadCloser{dec}, nil
	case CodecGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		return gz, nil
	case CodecSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, errors.Newf("unknown codec %d", c)
	}
}

type zstdReadCloser struct{ dec *zstd.Decoder }

func (z zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}

// Compress wraps w with the encoder for c. Closing the result flushes the
// encoder but leaves w open.
func Compress(w io.Writer, c Codec) (io.WriteCloser, error) {
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecBrotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "zstd writer")
		}
		return enc, nil
	case CodecGzip:
		return gzip.NewWriter(w), nil
	case CodecSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, errors.Newf("unknown codec %d", c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Open opens path for reading and decompresses it according to its
// extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	r, err := Decompress(f, CodecFor(path))
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &stackedCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
