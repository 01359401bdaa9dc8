package validate

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"first.last-1@sub.example.ru", true},
		{"user_name@mail.co", true},
		{"иван@почта.рф", true},
		{"ivan@почта.рф", true},
		{"user@домен.com", true},
		{"иван.петров@mail.ru", true},
		{"иван@почта", false},
		{"иван петров@почта.рф", false},
		{"", false},
		{"plain", false},
		{"user@", false},
		{"user@example", false},
		{"user@@example.com", false},
		{"user name@example.com", false},
		{"user+tag@example.com", false},
	}
	for _, tc := range tests {
		if got := Email(tc.in); got != tc.want {
			t.Errorf("Email(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"+79001234567", true},
		{"89001234567", true},
		{"+7 (900) 123-45-67", true},
		{"8 900 123 45 67", true},
		{"+7900123456", false},
		{"+790012345678", false},
		{"79001234567", false},
		{"+19001234567", false},
		{"phone", false},
		{"+7 900 123 45 6a", false},
	}
	for _, tc := range tests {
		if got := Phone(tc.in); got != tc.want {
			t.Errorf("Phone(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRequired(t *testing.T) {
	if Required("") || Required("   \t") {
		t.Fatalf("blank input must not satisfy Required")
	}
	if !Required(" a ") {
		t.Fatalf("non-blank input must satisfy Required")
	}
}
