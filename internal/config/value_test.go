package config

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		raw  string
		want Value
	}{
		{"true", Bool(true)},
		{"False", Bool(false)},
		{"TRUE", Bool(true)},
		{"42", Int(42)},
		{"-7", Int(-7)},
		{"10.5", Float(10.5)},
		{"1e3", Float(1000)},
		{"1.0", Float(1)},
		{"truthy", String("truthy")},
		{"User:Someone/util/Page", String("User:Someone/util/Page")},
		{"", String("")},
	}
	for _, tc := range cases {
		if got := Detect(tc.raw); got != tc.want {
			t.Errorf("Detect(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Bool(true), "true"},
		{Int(-3), "-3"},
		{Float(10.5), "10.5"},
		{String("x"), "x"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("%#v.String() = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindFloat.String() != "float" || KindString.String() != "string" {
		t.Error("kind names are part of error messages and must be stable")
	}
}
