package view

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		id   string
		term string
		want bool
	}{
		{"substring in file name", "src/auth.ts", "auth", true},
		{"no occurrence", "src/user.ts", "auth", false},
		{"not fooled by similar name", "lib/helpers.ts", "auth", false},
		{"case insensitive term", "src/auth.ts", "AUTH", true},
		{"case insensitive id", "src/AuthService.ts", "auth", true},
		{"directory part matches too", "auth/index.ts", "auth", true},
		{"empty term matches all", "anything.py", "", true},
		{"term longer than id", "a.ts", "a.ts.bak", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.id, tt.term); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.id, tt.term, got, tt.want)
			}
		})
	}
}
