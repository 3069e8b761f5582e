package utils_test

import (
	"testing"

	"its-hmny.dev/hsc/pkg/utils"
)

func TestOrderedMap(t *testing.T) {
	t.Run("Preserves insertion order", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		om.Set("c", 3)
		om.Set("a", 1)
		om.Set("b", 2)

		keys := om.Keys()
		if len(keys) != 3 || keys[0] != "c" || keys[1] != "a" || keys[2] != "b" {
			t.Errorf("expected insertion order [c a b], got %v", keys)
		}
	})

	t.Run("Update does not move position", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		om.Set("a", 1)
		om.Set("b", 2)
		om.Set("a", 42)

		keys := om.Keys()
		if keys[0] != "a" || keys[1] != "b" {
			t.Errorf("expected [a b], got %v", keys)
		}

		value, ok := om.Get("a")
		if !ok || value != 42 {
			t.Errorf("expected updated value 42, got %d (ok=%v)", value, ok)
		}
	})

	t.Run("Missing key", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		if _, ok := om.Get("missing"); ok {
			t.Error("expected Get of missing key to report !ok")
		}
		if om.Has("missing") {
			t.Error("expected Has of missing key to be false")
		}
	})

	t.Run("Entries round trip", func(t *testing.T) {
		om := utils.OrderedMap[string, int]{}
		om.Set("x", 10)
		om.Set("y", 20)

		entries := om.Entries()
		if len(entries) != 2 || entries[0].Key != "x" || entries[1].Value != 20 {
			t.Errorf("unexpected entries: %+v", entries)
		}
	})
}
