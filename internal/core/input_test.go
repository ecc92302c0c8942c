package core

import "testing"

func TestBindingsResolve(t *testing.T) {
	b := DefaultBindings()

	keys := b.Resolve(map[string]bool{"w": true, "shift": true, "q": true})

	if !keys.Has(ActionUp) {
		t.Error("w should press up")
	}
	if !keys.Has(ActionFocus) {
		t.Error("shift should press focus")
	}
	if keys.Has(ActionDown) {
		t.Error("down should not be pressed")
	}
	if _, ok := keys[ActionShoot]; !ok {
		t.Error("every bound action should appear in the resolved state")
	}
	if _, ok := keys["q"]; ok {
		t.Error("unbound raw keys should not leak into action state")
	}
}

func TestBindingsSharedRawKey(t *testing.T) {
	b := Bindings{"shoot": {"z"}, "confirm": {"z", "enter"}}
	keys := b.Resolve(map[string]bool{"z": true})
	if !keys.Has("shoot") || !keys.Has("confirm") {
		t.Errorf("one raw key should trigger every action bound to it, got %v", keys)
	}
}

func TestKeysNilSafe(t *testing.T) {
	var k Keys
	if k.Has(ActionUp) {
		t.Error("nil Keys should report nothing pressed")
	}
	c := k.Clone()
	if c == nil {
		t.Error("Clone of nil Keys should be an empty map")
	}
}

func TestBindingsActionsSorted(t *testing.T) {
	got := DefaultBindings().Actions()
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("Actions() not sorted: %v", got)
		}
	}
}
