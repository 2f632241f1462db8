package stream

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the label used when no encoding is configured.
const DefaultEncoding = "utf-8"

const minDecodeBuffer = 64

// LookupEncoding resolves a WHATWG encoding label such as "utf-8" or "utf-16le".
func LookupEncoding(label string) (encoding.Encoding, error) {
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %s", label, err)
	}
	return enc, nil
}

// decoder turns byte chunks into text. Bytes of a character split across
// chunks are kept in pending until the rest of the character arrives.
type decoder struct {
	t       transform.Transformer
	pending []byte
}

func newDecoder(enc encoding.Encoding) *decoder {
	return &decoder{t: enc.NewDecoder()}
}

// decode decodes p in stream mode.
func (d *decoder) decode(p []byte) (string, error) {
	return d.transform(p, false)
}

// flush decodes whatever is left over once the stream has ended.
func (d *decoder) flush() (string, error) {
	if len(d.pending) == 0 {
		return "", nil
	}
	return d.transform(nil, true)
}

func (d *decoder) transform(p []byte, atEOF bool) (string, error) {
	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
		d.pending = nil
	}

	var out strings.Builder
	dst := make([]byte, 2*len(src)+minDecodeBuffer)
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch err {
		case nil:
			return out.String(), nil
		case transform.ErrShortDst:
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		case transform.ErrShortSrc:
			if atEOF {
				return "", fmt.Errorf("truncated input at end of stream")
			}
			d.pending = append([]byte(nil), src...)
			return out.String(), nil
		default:
			return "", err
		}
	}
}
