package kfmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixWriterSingleWrites(t *testing.T) {
	specs := []struct {
		input string
		exp   string
	}{
		{"", ""},
		{"\n", "[test] \n"},
		{"no line break", "[test] no line break"},
		{"ends with a break\n", "[test] ends with a break\n"},
		{"one\ntwo\nthree", "[test] one\n[test] two\n[test] three"},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		w := PrefixWriter{Sink: &buf, Prefix: []byte("[test] ")}

		n, err := w.Write([]byte(spec.input))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		}

		// The reported count covers the input only, not the prefixes.
		if n != len(spec.input) {
			t.Errorf("[spec %d] expected a count of %d bytes; got %d", specIndex, len(spec.input), n)
		}

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriterSpanningWrites(t *testing.T) {
	var (
		buf bytes.Buffer
		w   = PrefixWriter{Sink: &buf, Prefix: []byte("[hal] ")}
	)

	// A line assembled across several writes gets exactly one prefix; the
	// line break in the middle write opens a fresh line for the tail.
	for _, part := range []string{"probing ", "devices", "\ndone", "\n"} {
		if _, err := w.Write([]byte(part)); err != nil {
			t.Fatal(err)
		}
	}

	exp := "[hal] probing devices\n[hal] done\n"
	if got := buf.String(); got != exp {
		t.Fatalf("expected output:\n%q\ngot:\n%q", exp, got)
	}
}

func TestPrefixWriterSinkErrors(t *testing.T) {
	errSink := errors.New("sink write failed")

	t.Run("while writing the prefix", func(t *testing.T) {
		w := PrefixWriter{
			Sink:   writerFunc(func(_ []byte) (int, error) { return 0, errSink }),
			Prefix: []byte("[test] "),
		}

		n, err := w.Write([]byte("payload"))
		if err != errSink || n != 0 {
			t.Fatalf("expected (0, sink error); got (%d, %v)", n, err)
		}
	})

	t.Run("while writing the payload", func(t *testing.T) {
		calls := 0
		w := PrefixWriter{
			Sink: writerFunc(func(p []byte) (int, error) {
				if calls++; calls > 1 {
					return 0, errSink
				}
				return len(p), nil
			}),
			Prefix: []byte("[test] "),
		}

		n, err := w.Write([]byte("payload"))
		if err != errSink || n != 0 {
			t.Fatalf("expected (0, sink error); got (%d, %v)", n, err)
		}
	})
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
