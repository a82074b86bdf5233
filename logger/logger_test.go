package logger

import "testing"

func TestNopDiscardsEverything(t *testing.T) {
	Nop.Debug("x")
	Nop.With("y").Info("z")
}

func TestWithNestsCategories(t *testing.T) {
	l := New().With("a").With("b").(*stdLogger)
	if l.prefix != "a.b" {
		t.Fatalf("expected nested prefix a.b, got %q", l.prefix)
	}
}
