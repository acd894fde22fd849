package backup

import (
	"errors"
	"testing"
)

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"cp":     MethodCopy,
		"attach": MethodAttach,
	}
	for in, want := range cases {
		got, err := ParseMethod(in)
		if err != nil {
			t.Fatalf("ParseMethod(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMethod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseMethodRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "rsync", "copy", "CP", "Attach", " attach", "cp "} {
		if _, err := ParseMethod(in); !errors.Is(err, ErrUnknownMethod) {
			t.Fatalf("ParseMethod(%q) expected ErrUnknownMethod, got %v", in, err)
		}
	}
}

func TestResultOK(t *testing.T) {
	if !(Result{}).OK() {
		t.Fatal("zero result should be OK")
	}
	if (Result{Err: ErrFilesystem}).OK() {
		t.Fatal("result with error should not be OK")
	}
}
