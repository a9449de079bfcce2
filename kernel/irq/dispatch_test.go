package irq

import "testing"

func dispatchContext(line Line, intsEnabled bool) *Context {
	var rflags uint64
	if intsEnabled {
		rflags = rflagsIF
	}

	return &Context{
		Line:  line,
		Frame: &Frame{RFlags: rflags},
		Regs:  &Regs{},
	}
}

// mockPanic reroutes the dispatcher's escalation path into a counter and
// returns a function that restores the real panic hook.
func mockPanic(calls *int) func() {
	origPanic := panicFn
	panicFn = func(_ interface{}) { *calls++ }
	return func() { panicFn = origPanic }
}

func TestDispatchRunsRegisteredHandler(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	var panicCalls int
	defer mockPanic(&panicCalls)()

	var gotLine Line
	line := MinLine + 1
	if err := Register(line, func(ctx *Context) { gotLine = ctx.Line }); err != nil {
		t.Fatal(err)
	}

	Dispatch(dispatchContext(line, true))

	if gotLine != line {
		t.Errorf("expected the handler for line %d to run; got line %d", line, gotLine)
	}

	if panicCalls != 0 {
		t.Error("expected no panic escalation for a handled interrupt")
	}
}

func TestDispatchBlockedInterrupt(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	var panicCalls int
	defer mockPanic(&panicCalls)()

	var handlerCalls int
	line := MinLine + 2
	if err := Register(line, func(_ *Context) { handlerCalls++ }); err != nil {
		t.Fatal(err)
	}

	// The same blocked interrupt may be delivered more than once; every
	// delivery must be dropped without side effects.
	Dispatch(dispatchContext(line, false))
	Dispatch(dispatchContext(line, false))

	if handlerCalls != 0 {
		t.Errorf("expected no handler to run while interrupts are disabled; got %d calls", handlerCalls)
	}

	if panicCalls != 0 {
		t.Error("expected no panic escalation for a blocked interrupt")
	}

	if got := SpuriousCount(); got != 0 {
		t.Errorf("expected the spurious count to stay at 0; got %d", got)
	}
}

func TestDispatchPanicLine(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	var panicCalls int
	defer mockPanic(&panicCalls)()

	// The panic line escalates even when it fires with interrupts
	// disabled.
	Dispatch(dispatchContext(PanicLine, false))

	if panicCalls != 1 {
		t.Errorf("expected the panic line to escalate; got %d panic calls", panicCalls)
	}
}

func TestDispatchSpuriousInterrupt(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	var panicCalls int
	defer mockPanic(&panicCalls)()

	if err := SetController(&fakeController{spuriousLine: SpuriousLine}); err != nil {
		t.Fatal(err)
	}

	var handlerCalls int
	if err := Register(SpuriousLine, func(_ *Context) { handlerCalls++ }); err != nil {
		t.Fatal(err)
	}

	Dispatch(dispatchContext(SpuriousLine, true))

	if got := SpuriousCount(); got != 1 {
		t.Errorf("expected the spurious count to reach 1; got %d", got)
	}

	if handlerCalls != 0 {
		t.Error("expected no handler to run for a spurious interrupt")
	}

	if panicCalls != 0 {
		t.Error("expected no panic escalation for a spurious interrupt")
	}
}

func TestDispatchUnregisteredLine(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	var panicCalls int
	defer mockPanic(&panicCalls)()

	Dispatch(dispatchContext(MinLine+3, true))

	if panicCalls != 1 {
		t.Errorf("expected an unregistered in-range line to escalate; got %d panic calls", panicCalls)
	}
}
