package kfmt

import (
	"bytes"
	"testing"
)

func TestPrintf(t *testing.T) {
	defer func() {
		outputSink = nil
	}()

	// mute vet warnings about malformed printf formatting strings
	printfn := Printf

	specs := []struct {
		fn        func()
		expOutput string
	}{
		{
			func() { printfn("no args") },
			"no args",
		},
		// bool values
		{
			func() { printfn("%t", true) },
			"true",
		},
		{
			func() { printfn("%41t", false) },
			"false",
		},
		// strings, byte slices and chars
		{
			func() { printfn("%s arg", "STRING") },
			"STRING arg",
		},
		{
			func() { printfn("%s arg", []byte("BYTE SLICE")) },
			"BYTE SLICE arg",
		},
		{
			func() { printfn("'%4s' arg with padding", "ABC") },
			"' ABC' arg with padding",
		},
		{
			func() { printfn("'%4s' arg longer than padding", "ABCDE") },
			"'ABCDE' arg longer than padding",
		},
		{
			func() { printfn("char: %c", byte('@')) },
			"char: @",
		},
		// uints
		{
			func() { printfn("uint arg: %d", uint8(10)) },
			"uint arg: 10",
		},
		{
			func() { printfn("uint arg: %o", uint16(0777)) },
			"uint arg: 777",
		},
		{
			func() { printfn("uint arg: 0x%x", uint32(0xbadf00d)) },
			"uint arg: 0xbadf00d",
		},
		{
			func() { printfn("uint arg with padding: '%10d'", uint64(123)) },
			"uint arg with padding: '       123'",
		},
		{
			func() { printfn("uint arg with padding: '%4o'", uint64(0777)) },
			"uint arg with padding: '0777'",
		},
		{
			func() { printfn("uint arg with padding: '0x%10x'", uint64(0xbadf00d)) },
			"uint arg with padding: '0x000badf00d'",
		},
		{
			func() { printfn("uint arg longer than padding: '0x%5x'", int64(0xbadf00d)) },
			"uint arg longer than padding: '0xbadf00d'",
		},
		// pointers
		{
			func() { printfn("uintptr 0x%x", uintptr(0xb8000)) },
			"uintptr 0xb8000",
		},
		// ints
		{
			func() { printfn("int arg: %d", int8(-10)) },
			"int arg: -10",
		},
		{
			func() { printfn("int arg with padding: '%6d'", int16(-123)) },
			"int arg with padding: '  -123'",
		},
		{
			func() { printfn("int arg: %d", int32(1234)) },
			"int arg: 1234",
		},
		{
			func() { printfn("int arg: %d", int64(-12345)) },
			"int arg: -12345",
		},
		{
			func() { printfn("int arg: %d", int(999)) },
			"int arg: 999",
		},
		// literal % and multiple args
		{
			func() { printfn("100%%") },
			"100%",
		},
		{
			func() { printfn("%d%% of %d", 50, 100) },
			"50% of 100",
		},
		// errors
		{
			func() { printfn("more verbs than args: %d %d", 1) },
			"more verbs than args: 1 (MISSING)",
		},
		{
			func() { printfn("missing verb %") },
			"missing verb %!(NOVERB)",
		},
		{
			func() { printfn("bad verb %j", 1) },
			"bad verb %!(NOVERB)",
		},
		{
			func() { printfn("%t", "not a bool") },
			"%!(WRONGTYPE)",
		},
		{
			func() { printfn("%d", "not an int") },
			"%!(WRONGTYPE)",
		},
		{
			func() { printfn("%s", 123) },
			"%!(WRONGTYPE)",
		},
		{
			func() { printfn("%c", "not a char") },
			"%!(WRONGTYPE)",
		},
		{
			func() { printfn("extra args", 1, 2) },
			"extra args%!(EXTRA)%!(EXTRA)",
		},
	}

	var buf bytes.Buffer
	outputSink = &buf

	for specIndex, spec := range specs {
		buf.Reset()
		spec.fn()

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected to get %q; got %q", specIndex, spec.expOutput, got)
		}
	}
}

func TestEarlyPrintBuffer(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyPrintBuffer.readAt = 0
		earlyPrintBuffer.writeAt = 0
	}()
	outputSink = nil

	Printf("early output: %d\n", 42)

	// Attaching a sink must drain the buffered early output into it.
	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "early output: 42\n", buf.String(); got != exp {
		t.Fatalf("expected early output %q to be copied to the sink; got %q", exp, got)
	}

	if GetOutputSink() != &buf {
		t.Fatal("expected GetOutputSink to return the attached sink")
	}
}
