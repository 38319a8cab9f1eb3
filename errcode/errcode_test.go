package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("Of(nil) should be OK")
	}
	if Of(Timeout) != Timeout {
		t.Fatal("Of(Code) should return the code itself")
	}
	if Of(New(MissingTarget, "connect", "")) != MissingTarget {
		t.Fatal("Of(*E) should return the wrapped code")
	}
	if Of(errors.New("boom")) != Error {
		t.Fatal("Of(foreign) should fall back to Error")
	}
}

func TestE_ErrorsIsAndUnwrap(t *testing.T) {
	cause := errors.New("radio busy")
	e := Wrap(JoinRejected, "connect", cause)
	if !errors.Is(e, JoinRejected) {
		t.Fatal("errors.Is should match the bare code")
	}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should reach the cause")
	}
	if got, want := e.Error(), "connect: join_rejected: radio busy"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
