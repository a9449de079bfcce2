package irq

import "testing"

// fakeController records the calls the irq package routes through the
// Controller contract.
type fakeController struct {
	lines        map[uint32]Line
	spuriousLine Line

	maskCalls []uint32
	maskFlags []bool
	eoiCalls  []uint32
}

func (c *fakeController) SetIrqMask(irq uint32, enabled bool) {
	c.maskCalls = append(c.maskCalls, irq)
	c.maskFlags = append(c.maskFlags, enabled)
}

func (c *fakeController) SetIrqEOI(irq uint32) {
	c.eoiCalls = append(c.eoiCalls, irq)
}

func (c *fakeController) HandleSpurious(line Line) IntType {
	if line == c.spuriousLine {
		return IntTypeSpurious
	}
	return IntTypeRegular
}

func (c *fakeController) InterruptLine(irq uint32) (Line, bool) {
	line, ok := c.lines[irq]
	return line, ok
}

func TestSetController(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	if err := SetController(nil); err != ErrNilController {
		t.Fatalf("expected ErrNilController; got %v", err)
	}

	first := &fakeController{}
	if err := SetController(first); err != nil {
		t.Fatalf("expected first registration to succeed; got %v", err)
	}

	if got := ActiveController(); got != Controller(first) {
		t.Fatalf("expected ActiveController to return the registered controller; got %v", got)
	}

	if err := SetController(&fakeController{}); err != ErrControllerAlreadySet {
		t.Fatalf("expected ErrControllerAlreadySet; got %v", err)
	}

	if got := ActiveController(); got != Controller(first) {
		t.Fatal("expected a failed registration to leave the active controller untouched")
	}
}

func TestControllerDelegation(t *testing.T) {
	_, restore := mockIntFlag(true)
	defer restore()
	Init()

	ctrl := &fakeController{}
	if err := SetController(ctrl); err != nil {
		t.Fatal(err)
	}

	SetIrqMask(4, true)
	SetIrqEOI(4)

	if len(ctrl.maskCalls) != 1 || ctrl.maskCalls[0] != 4 || !ctrl.maskFlags[0] {
		t.Errorf("expected SetIrqMask(4, true) to reach the controller; got %v / %v", ctrl.maskCalls, ctrl.maskFlags)
	}

	if len(ctrl.eoiCalls) != 1 || ctrl.eoiCalls[0] != 4 {
		t.Errorf("expected SetIrqEOI(4) to reach the controller; got %v", ctrl.eoiCalls)
	}
}

func TestNullController(t *testing.T) {
	var c nullController

	if _, ok := c.InterruptLine(0); ok {
		t.Error("expected the null controller to reject all IRQs")
	}

	if got := c.HandleSpurious(SpuriousLine); got != IntTypeRegular {
		t.Errorf("expected the null controller to classify every line as regular; got %d", got)
	}
}
