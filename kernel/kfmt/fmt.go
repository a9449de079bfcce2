// Package kfmt implements a minimal, allocation-free printf that is safe to
// use at any point of the kernel lifecycle, including the early boot stages
// where the Go allocator is not yet available.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize defines the scratch buffer size for formatting numbers. It is
// large enough for a 64-bit value in base 8 plus a sign.
const numBufSize = 24

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numBuf [numBufSize]byte

	// singleByte is a shared one-byte buffer used to emit characters one at
	// a time; slicing a string would trigger an allocation.
	singleByte = []byte{0}

	// earlyPrintBuffer stores Printf output generated before an output sink
	// is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. While nil,
	// output is redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and drains
// any data accumulated in the early print buffer into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the io.Writer that currently receives Printf output.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf formats its arguments to the active output sink. The supported verb
// subset is:
//
// Strings:
//		%s the uninterpreted bytes of the string or byte slice
//		%c the single byte argument as a character
//
// Integers:
//		%o base 8
//		%d base 10
//		%x base 16, with lower-case letters for a-f
//
// Booleans:
//		%t "true" or "false"
//
// An optional decimal width may precede the verb. Strings and base-10 values
// shorter than the width are left-padded with spaces; base-8 and base-16
// values are left-padded with zeroes.
//
// Printf assumes the Go itables may not be initialized yet so its arguments
// must be plain built-in string, byte-slice, boolean or integer values. No
// pointer verb is provided; formatting pointers requires the reflect package
// whose import would make the compiler emit allocating conversions on every
// call.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		i      int
		argIdx int
		fmtLen = len(format)
	)

	for i < fmtLen {
		if format[i] != '%' {
			emitByte(w, format[i])
			i++
			continue
		}

		// Scan the optional width and the verb
		i++
		width := 0
		for i < fmtLen && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}

		if i == fmtLen {
			doWrite(w, errNoVerb)
			break
		}

		verb := format[i]
		i++

		if verb == '%' {
			emitByte(w, '%')
			continue
		}

		if argIdx >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch verb {
		case 'o':
			emitInt(w, args[argIdx], 8, width)
		case 'd':
			emitInt(w, args[argIdx], 10, width)
		case 'x':
			emitInt(w, args[argIdx], 16, width)
		case 's':
			emitString(w, args[argIdx], width)
		case 'c':
			emitChar(w, args[argIdx])
		case 't':
			emitBool(w, args[argIdx])
		default:
			doWrite(w, errNoVerb)
		}
		argIdx++
	}

	for ; argIdx < len(args); argIdx++ {
		doWrite(w, errExtraArg)
	}
}

func emitByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

func emitBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if bVal {
		doWrite(w, trueValue)
	} else {
		doWrite(w, falseValue)
	}
}

func emitChar(w io.Writer, v interface{}) {
	switch cVal := v.(type) {
	case byte:
		emitByte(w, cVal)
	case rune:
		emitByte(w, byte(cVal))
	default:
		doWrite(w, errWrongArgType)
	}
}

// emitString emits a string or byte slice left-padded with spaces up to the
// requested width. String contents are emitted one byte at a time as a
// string-to-slice conversion would trigger an allocation.
func emitString(w io.Writer, v interface{}, width int) {
	switch sVal := v.(type) {
	case string:
		emitPad(w, ' ', width-len(sVal))
		for i := 0; i < len(sVal); i++ {
			emitByte(w, sVal[i])
		}
	case []byte:
		emitPad(w, ' ', width-len(sVal))
		doWrite(w, sVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

func emitPad(w io.Writer, ch byte, count int) {
	for i := 0; i < count; i++ {
		emitByte(w, ch)
	}
}

// emitInt emits v in the requested base, left-padding up to width with zeroes
// for base 8 and 16 and with spaces for base 10. All built-in fixed-size
// signed and unsigned integer types are supported.
func emitInt(w io.Writer, v interface{}, base, width int) {
	var (
		uval     uint64
		negative bool
	)

	switch iVal := v.(type) {
	case uint8:
		uval = uint64(iVal)
	case uint16:
		uval = uint64(iVal)
	case uint32:
		uval = uint64(iVal)
	case uint64:
		uval = iVal
	case uint:
		uval = uint64(iVal)
	case uintptr:
		uval = uint64(iVal)
	case int8:
		negative = iVal < 0
		uval = abs64(int64(iVal))
	case int16:
		negative = iVal < 0
		uval = abs64(int64(iVal))
	case int32:
		negative = iVal < 0
		uval = abs64(int64(iVal))
	case int64:
		negative = iVal < 0
		uval = abs64(iVal)
	case int:
		negative = iVal < 0
		uval = abs64(int64(iVal))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	// Render the digits in reverse order into the scratch buffer
	digits := 0
	for {
		remainder := uval % uint64(base)
		if remainder < 10 {
			numBuf[digits] = byte(remainder) + '0'
		} else {
			numBuf[digits] = byte(remainder-10) + 'a'
		}
		digits++

		uval /= uint64(base)
		if uval == 0 {
			break
		}
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	printed := digits
	if negative {
		printed++
	}

	if padCh == ' ' {
		// space padding goes before the sign
		emitPad(w, padCh, width-printed)
		if negative {
			emitByte(w, '-')
		}
	} else {
		if negative {
			emitByte(w, '-')
		}
		emitPad(w, padCh, width-printed)
	}

	for digits > 0 {
		digits--
		emitByte(w, numBuf[digits])
	}
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without this hack, the compiler cannot properly
// detect that p does not escape (due to the call through the yet unknown
// outputSink io.Writer) and plays it safe by flagging it as escaping. This
// causes all calls to Printf to call runtime.convT2E which triggers a memory
// allocation causing the kernel to crash if a call to Printf is made before
// the Go allocator is initialized.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
