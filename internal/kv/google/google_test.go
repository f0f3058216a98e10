package google

import (
	"strings"
	"testing"
)

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"transactions", `[{"id":1,`, `"amount":5}]`},
		{},
		{"  ", "ignored"},
		{"initialCapital", 100.5},
		{"transactions", "duplicate"},
		{"lastProcessedDate"},
	}
	rows := parseRows(values)

	tests := []struct {
		key   string
		row   int
		value string
	}{
		{"transactions", 1, `[{"id":1,"amount":5}]`},
		{"initialCapital", 4, "100.5"},
		{"lastProcessedDate", 6, ""},
	}
	for _, tt := range tests {
		got, ok := rows[tt.key]
		if !ok {
			t.Fatalf("key %q missing", tt.key)
		}
		if got.row != tt.row || got.value != tt.value {
			t.Errorf("%s: got row=%d value=%q, want row=%d value=%q", tt.key, got.row, got.value, tt.row, tt.value)
		}
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(rows))
	}
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
		want []string
	}{
		{"empty", "", 4, []string{""}},
		{"fits", "abcd", 4, []string{"abcd"}},
		{"splits", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		// "é" is two bytes and must not be cut in half.
		{"utf8", "abcé", 4, []string{"abc", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitChunks(tt.in, tt.size)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeAndPadRow(t *testing.T) {
	row := padRow(encodeRow("k", []string{"a", "b"}), 5)
	if len(row) != 5 {
		t.Fatalf("expected width 5, got %d", len(row))
	}
	if row[0] != "k" || row[1] != "a" || row[2] != "b" || row[4] != "" {
		t.Fatalf("unexpected row: %v", row)
	}
	if got := rowRange("Ledger", 7); got != "Ledger!A7:Z7" {
		t.Fatalf("unexpected range %q", got)
	}
}
