package kfmt

import "io"

// PrefixWriter is an io.Writer that forwards its input to a sink, injecting a
// prefix at the start of every output line. Lines may span multiple Write
// calls; the writer remembers whether the current line is still open.
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is injected at the beginning of each line.
	Prefix []byte

	midLine bool
}

// Write forwards p to the sink, prefixing every line it starts. The returned
// count covers the bytes of p only; injected prefixes are not included.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		// Forward up to and including the next line break. The rest of
		// p is handled on the next pass so its prefix goes out first.
		chunk := len(p)
		endsLine := false
		for i, b := range p {
			if b == '\n' {
				chunk, endsLine = i+1, true
				break
			}
		}

		n, err := w.Sink.Write(p[:chunk])
		written += n
		if err != nil {
			return written, err
		}

		if endsLine {
			w.midLine = false
		}
		p = p[chunk:]
	}

	return written, nil
}
