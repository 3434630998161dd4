package pkg

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all of its writers, e.g. the
// console and the rotated log file.
type CombinedWriter struct {
	writers []namedWriter
}

type namedWriter struct {
	name string
	io.Writer
}

// WithName labels w so that CombinedWriter errors say which output failed.
func WithName(name string, w io.Writer) io.Writer {
	return namedWriter{name: name, Writer: w}
}

// NewCombinedWriter skips nil writers. Writers not wrapped with WithName are
// named by their position.
func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for i, w := range writers {
		switch nw := w.(type) {
		case nil:
			continue
		case namedWriter:
			if nw.Writer == nil {
				continue
			}
			cw.writers = append(cw.writers, nw)
		default:
			cw.writers = append(cw.writers, namedWriter{name: fmt.Sprintf("writer #%d", i), Writer: w})
		}
	}
	return cw
}

func (cw *CombinedWriter) Len() int {
	return len(cw.writers)
}

// Write reports len(p) when every writer took all of p. Otherwise n is the
// fewest bytes any writer took and err names each failed writer.
func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr == nil && written < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", w.name, werr))
		}
		n = min(n, written)
	}
	return n, err
}
