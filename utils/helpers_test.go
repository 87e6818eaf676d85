package utils

import "testing"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{name: "admin", role: "admin", want: true},
		{name: "professor", role: "professor", want: true},
		{name: "student", role: "student", want: true},
		{name: "unknown role", role: "superuser", want: false},
		{name: "empty", role: "", want: false},
		{name: "case sensitive", role: "Admin", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidRole(tc.role); got != tc.want {
				t.Fatalf("IsValidRole(%q) = %v, want %v", tc.role, got, tc.want)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  Salle 101  ", want: "Salle 101"},
		{name: "strips null bytes", input: "Amphi\x00 A", want: "Amphi A"},
		{name: "clean passes through", input: "Labo Info 1", want: "Labo Info 1"},
		{name: "empty", input: "", want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeString(tc.input); got != tc.want {
				t.Fatalf("SanitizeString(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash equals the plain password")
	}
	if err := CheckPassword("password123", hash); err != nil {
		t.Fatalf("CheckPassword rejected the right password: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Fatal("CheckPassword accepted a wrong password")
	}
}
