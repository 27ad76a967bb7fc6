package boundary

import (
	"errors"
	"testing"
)

func TestGetString(t *testing.T) {
	env := NewEnv()

	if s, err := env.GetString("s1"); err != nil || s != "s1" {
		t.Errorf("GetString() = %q, %v", s, err)
	}

	_, err := env.GetString("\xc3\x28")
	var me *MarshalError
	if !errors.As(err, &me) {
		t.Errorf("GetString(invalid) error = %v, want *MarshalError", err)
	}
}

func TestGetOptionalString(t *testing.T) {
	env := NewEnv()

	got, err := env.GetOptionalString(nil)
	if err != nil || got != nil {
		t.Errorf("GetOptionalString(nil) = %v, %v", got, err)
	}

	v := "task-1"
	got, err = env.GetOptionalString(&v)
	if err != nil || got == nil || *got != "task-1" {
		t.Errorf("GetOptionalString(&v) = %v, %v", got, err)
	}
}

func TestNewByteArrayCopies(t *testing.T) {
	env := NewEnv()
	src := []byte{1, 2, 3}

	out, err := env.NewByteArray(src)
	if err != nil {
		t.Fatalf("NewByteArray() error: %v", err)
	}
	src[0] = 9
	if out[0] != 1 {
		t.Error("NewByteArray must copy its input")
	}
}

func TestThrowNilException(t *testing.T) {
	env := NewEnv()
	if err := env.Throw(nil); err == nil {
		t.Error("Throw(nil) should fail")
	}
}

func TestExceptionOccurredDoesNotClear(t *testing.T) {
	env := NewEnv()
	_ = env.Throw(&Exception{Code: CodeOther, Message: "x"})

	if env.ExceptionOccurred() == nil {
		t.Fatal("ExceptionOccurred() = nil")
	}
	if !env.ExceptionCheck() {
		t.Error("ExceptionOccurred must not clear the exception")
	}
}

func TestExceptionError(t *testing.T) {
	ex := &Exception{Code: CodeHTTP, Message: "timeout"}
	if got := ex.Error(); got != "HTTP_ERROR: timeout" {
		t.Errorf("Error() = %q", got)
	}
}
