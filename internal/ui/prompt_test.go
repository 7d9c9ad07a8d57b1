package ui

import "testing"

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice", "alice"},
		{"al\x00ice", "alice"},
		{"bob\r\n", "bob"},
		{"tab\tkept", "tab\tkept"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
