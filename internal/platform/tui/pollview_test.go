package tui

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short ascii", "Coffee", 20, "Coffee"},
		{"long ascii", "A very long poll question", 10, "A very ..."},
		{"exact length", "Tea", 3, "Tea"},
		{"tiny max", "Coffee", 2, "Co"},
		{"short multibyte", "Кофе или чай?", 20, "Кофе или чай?"},
		{"long multibyte", "Кофе или чай или вода?", 10, "Кофе ил..."},
		{"long cjk", "コーヒーかお茶か、どちらが好きですか", 8, "コーヒーか..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.max)
			if got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tc.in, tc.max, got)
			}
		})
	}
}
