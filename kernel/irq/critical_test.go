package irq

import "testing"

// mockIntFlag installs a software stand-in for the hardware interrupt flag
// and returns a function that restores the real CPU hooks.
func mockIntFlag(enabled bool) (flag *bool, restore func()) {
	origEnabled := intsEnabledFn
	origDisable := disableIntsFn
	origEnable := enableIntsFn

	flag = &enabled
	intsEnabledFn = func() bool { return *flag }
	disableIntsFn = func() { *flag = false }
	enableIntsFn = func() { *flag = true }

	return flag, func() {
		intsEnabledFn = origEnabled
		disableIntsFn = origDisable
		enableIntsFn = origEnable
	}
}

func TestDisableRestore(t *testing.T) {
	flag, restore := mockIntFlag(true)
	defer restore()

	state := Disable()
	if *flag {
		t.Error("expected Disable to clear the interrupt flag")
	}

	state.Restore()
	if !*flag {
		t.Error("expected Restore to re-enable interrupts")
	}
}

func TestDisableWhileAlreadyDisabled(t *testing.T) {
	flag, restore := mockIntFlag(false)
	defer restore()

	state := Disable()
	state.Restore()

	if *flag {
		t.Error("expected Restore to keep interrupts disabled when Disable found them disabled")
	}
}

func TestNestedCriticalSections(t *testing.T) {
	flag, restore := mockIntFlag(true)
	defer restore()

	outer := Disable()
	inner := Disable()

	inner.Restore()
	if *flag {
		t.Error("expected interrupts to stay disabled after the inner Restore")
	}

	outer.Restore()
	if !*flag {
		t.Error("expected interrupts to be re-enabled after the outer Restore")
	}
}
