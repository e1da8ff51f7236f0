package sanitizer

import (
	"reflect"
	"testing"
)

type crew struct {
	id   string
	name string
}

func TestDedupe(t *testing.T) {
	in := []crew{
		{"s1", "Jane"},
		{"", "Nobody"},
		{"s2", "Bob"},
		{"s1", "Jane again"},
	}

	got := Dedupe(in, func(c crew) string { return c.id })
	want := []crew{{"s1", "Jane"}, {"s2", "Bob"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe() = %v, want %v", got, want)
	}
}

func TestDedupe_Empty(t *testing.T) {
	got := Dedupe([]string(nil), func(s string) string { return s })
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
