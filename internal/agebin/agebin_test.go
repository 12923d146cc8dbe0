package agebin

import (
	"math"
	"testing"
)

func TestFromMonths(t *testing.T) {
	tests := []struct {
		months float64
		want   string
	}{
		{0, "0yo"},
		{6, "0yo"},
		{11, "0yo"},
		{12, "1yo"},
		{23, "1yo"},
		{24, "2yo"},
		{35.5, "2yo"},
		{36, "3yo"},
		{48, "4yo"},
		{60, "5yo"},
		{71, "5yo"},
		{72, "6yo_plus"},
		{120, "6yo_plus"},
		{-1, Unknown},
	}
	for _, tt := range tests {
		if got := FromMonths(tt.months); got != tt.want {
			t.Errorf("FromMonths(%v) = %q, want %q", tt.months, got, tt.want)
		}
	}
	if got := FromMonths(math.NaN()); got != Unknown {
		t.Errorf("FromMonths(NaN) = %q, want %q", got, Unknown)
	}
}

func TestIndex(t *testing.T) {
	for i, label := range Labels {
		got, ok := Index(label)
		if !ok || got != i {
			t.Errorf("Index(%q) = %d,%v, want %d,true", label, got, ok, i)
		}
	}
	if _, ok := Index(Unknown); ok {
		t.Error("Index(Unknown) should not resolve to a bin")
	}
}

func TestMidpoint(t *testing.T) {
	for _, label := range Labels {
		m, ok := Midpoint(label)
		if !ok {
			t.Fatalf("Midpoint(%q) missing", label)
		}
		if FromMonths(m) != label {
			t.Errorf("midpoint %v of %q maps back to %q", m, label, FromMonths(m))
		}
	}
}
