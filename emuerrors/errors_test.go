package emuerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKinds(t *testing.T) {
	wrapped := fmt.Errorf("load demo.prg: %w", ErrFBadMagic)
	if !errors.Is(wrapped, ErrFormat) {
		t.Errorf("expected %v to be a format error", wrapped)
	}
	if errors.Is(wrapped, ErrMemory) {
		t.Errorf("format error must not match memory kind")
	}
	if !errors.Is(ErrHWouldBlock, ErrHostResource) {
		t.Errorf("would-block is a host resource error")
	}
}

func TestNameAndCode(t *testing.T) {
	cases := []struct {
		err  error
		code string
		name string
	}{
		{ErrFBadMagic, "F1", "BadMagic"},
		{ErrCDivideZero, "C3", "DivideByZero"},
		{ErrUnmappedTrap, "U0", "UnmappedTrap"},
	}
	for _, c := range cases {
		if got := GetErrorCode(c.err); got != c.code {
			t.Errorf("code %q, want %q", got, c.code)
		}
		if got := GetErrorName(c.err); got != c.name {
			t.Errorf("name %q, want %q", got, c.name)
		}
	}
	if got := GetErrorCodeWithName(ErrMTooLarge); got != "M1_TooLarge" {
		t.Errorf("got %q", got)
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Errorf("plain errors carry no code")
	}
	if GetErrorName(nil) != "No Error" {
		t.Errorf("nil name")
	}
}
