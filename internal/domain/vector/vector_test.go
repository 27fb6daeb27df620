package vector

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/askctx/internal/domain"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"parallel", Vector{1, 1}, Vector{1, 1}, 2},
		{"mixed signs", Vector{1, -2, 3}, Vector{4, 5, -6}, -24},
		{"empty", Vector{}, Vector{}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Dot(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Dot = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDot_Symmetric(t *testing.T) {
	pairs := [][2]Vector{
		{{0.25, 0.5, -1}, {2, -0.5, 0.125}},
		{{3, 7}, {-1, 4}},
		{{0.1, 0.2, 0.3, 0.4}, {0.4, 0.3, 0.2, 0.1}},
	}
	for _, p := range pairs {
		ab, err := Dot(p[0], p[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := Dot(p[1], p[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ab != ba {
			t.Errorf("Dot(%v, %v) = %v, reverse = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestDot_LengthMismatch(t *testing.T) {
	_, err := Dot(Vector{1, 2, 3}, Vector{1, 2})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	var dme *domain.DimensionMismatchError
	if !errors.As(err, &dme) {
		t.Fatalf("expected DimensionMismatchError, got %T", err)
	}
	if dme.Want != 3 || dme.Got != 2 {
		t.Errorf("unexpected mismatch details: %+v", dme)
	}
}

func TestClone(t *testing.T) {
	v := Vector{1, 2}
	c := v.Clone()
	c[0] = 9
	if v[0] != 1 {
		t.Error("Clone shares backing array")
	}
	if Vector(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
