package kfmt

import (
	"helios/kernel"
	"helios/kernel/cpu"
)

var (
	// cpuHaltFn is mocked by tests and is automatically inlined by the compiler.
	cpuHaltFn = cpu.Halt

	// haltBroadcastFn is installed by the local interrupt controller driver
	// once inter-core signaling is available. It stops every other core
	// before the panicking core halts itself.
	haltBroadcastFn func()

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// SetPanicBroadcast registers the function used to stop the remaining cores
// when a panic occurs on a multi-core system.
func SetPanicBroadcast(fn func()) {
	haltBroadcastFn = fn
}

// Panic outputs the supplied error (if not nil) to the console and halts the
// CPU. On multi-core systems the other cores are stopped first through the
// registered broadcast function. Calls to Panic never return. Panic also
// works as a redirection target for calls to panic() (resolved via
// runtime.gopanic)
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		panicString(t)
		return
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	if haltBroadcastFn != nil {
		haltBroadcastFn()
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	cpuHaltFn()
}

// panicString serves as a redirect target for runtime.throw
//go:redirect-from runtime.throw
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}
