package utils

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"jepang", "jepang", 0},
		{"jepang", "jepamg", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("Saya dari Jepang", "saya dari jepang"); got != 1.0 {
		t.Errorf("case-insensitive similarity = %f, want 1", got)
	}
	if got := Similarity("saya dari jepang", "saya dari jepamg"); got < 0.9 {
		t.Errorf("one-typo similarity = %f, want >= 0.9", got)
	}
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint similarity = %f, want 0", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename("../etc/passwd"); got != ".._etc_passwd" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}
