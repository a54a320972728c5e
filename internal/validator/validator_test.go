package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{"alice@example.com", "a.b+c@sub.domain.org"} {
		if err := ValidateEmail(email); err != nil {
			t.Fatalf("ValidateEmail(%q): unexpected error: %v", email, err)
		}
	}
	for _, email := range []string{"", "no-at.example.com", "two@@example.com", "spaces in@example.com", "missing@tld"} {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("ValidateEmail(%q): expected error", email)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	for _, username := range []string{"alice", "user_123", "abc"} {
		if err := ValidateUsername(username); err != nil {
			t.Fatalf("ValidateUsername(%q): unexpected error: %v", username, err)
		}
	}
	for _, username := range []string{"", "ab", "has space", "emoji🙂", "waaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaytoolong"} {
		if err := ValidateUsername(username); err == nil {
			t.Fatalf("ValidateUsername(%q): expected error", username)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("password123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	for _, number := range []string{"+5511999123456", "+12025550100"} {
		if err := ValidatePhoneNumber(number); err != nil {
			t.Fatalf("ValidatePhoneNumber(%q): unexpected error: %v", number, err)
		}
	}
	for _, number := range []string{"", "5511999123456", "+55 11 99912", "+abc"} {
		if err := ValidatePhoneNumber(number); err == nil {
			t.Fatalf("ValidatePhoneNumber(%q): expected error", number)
		}
	}
}
