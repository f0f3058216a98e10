package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Amount `json:"a"`
	}{AmountFromFloat(12.5)})
	if err != nil || string(b) != `{"a":12.5}` {
		t.Fatalf("unexpected json %s (err=%v)", b, err)
	}

	cases := map[string]string{
		`12.5`:   "12.5",
		`"7,25"`: "7.25",
		`"oops"`: "0",
		`null`:   "0",
		`true`:   "0",
	}
	for in, want := range cases {
		var a Amount
		if err := json.Unmarshal([]byte(in), &a); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if a.String() != want {
			t.Fatalf("%s: expected %s, got %s", in, want, a)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := AmountFromFloat(12.5).Format("USD"); got != "$12.50" {
		t.Fatalf("USD: got %q", got)
	}
	if got := AmountFromFloat(3).Format("NOPE"); got != "3.00" {
		t.Fatalf("unknown currency: got %q", got)
	}
}
