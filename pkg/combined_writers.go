package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans log output out to several sinks. A failing sink does
// not stop the others, and the write only fails as a whole when no sink took it.
type CombinedWriter struct {
	writers []io.Writer
}

// NewCombinedWriter skips nil writers, so optional sinks can be passed as is.
func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{writers: make([]io.Writer, 0, len(writers))}
	for _, w := range writers {
		if w != nil {
			cw.writers = append(cw.writers, w)
		}
	}
	return cw
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		errs    error
		written bool
	)
	for _, w := range cw.writers {
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written = true
	}
	if !written && errs != nil {
		return 0, errs
	}
	return len(p), errs
}
