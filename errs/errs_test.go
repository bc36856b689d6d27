package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "no cause",
			err:  New("v4l2.Open", UnknownDevice, nil),
			want: "v4l2.Open: unknown_device",
		},
		{
			name: "with cause",
			err:  New("v4l2.Open", IO, errors.New("no such file")),
			want: "v4l2.Open: io: no such file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	base := New("pipeline.Start", BadCaps, nil)
	wrapped := fmt.Errorf("registry: %w", base)

	if !Is(base, BadCaps) {
		t.Fatal("Is(base, BadCaps) = false, want true")
	}
	if !Is(wrapped, BadCaps) {
		t.Fatal("Is(wrapped, BadCaps) = false, want true")
	}
	if Is(wrapped, Timeout) {
		t.Fatal("Is(wrapped, Timeout) = true, want false")
	}
	if Is(errors.New("plain"), Init) {
		t.Fatal("Is(plain error, Init) = true, want false")
	}
}

func TestKindString(t *testing.T) {
	if Kind(99).String() != "unknown" {
		t.Fatalf("unknown kind should stringify to %q", "unknown")
	}
	if Timeout.String() != "timeout" {
		t.Fatalf("Timeout.String() = %q, want %q", Timeout.String(), "timeout")
	}
}
