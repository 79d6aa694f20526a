package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Error("password must not be stored in plain text")
	}
	if err := CheckPassword("s3cret-pass", hash); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"admin", true},
		{"teacher", true},
		{"student", true},
		{"Admin", false},
		{"superuser", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestIsValidFileExtension(t *testing.T) {
	allowed := []string{"jpg", "png", " pdf"}
	tests := []struct {
		filename string
		want     bool
	}{
		{"receipt.jpg", true},
		{"receipt.JPG", true},
		{"scan.pdf", true},
		{"archive.zip", false},
		{"noextension", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidFileExtension(tt.filename, allowed); got != tt.want {
			t.Errorf("IsValidFileExtension(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	if err != nil {
		t.Fatalf("GenerateRandomString returned error: %v", err)
	}
	if len(a) != 16 {
		t.Errorf("expected length 16, got %d", len(a))
	}
	b, _ := GenerateRandomString(16)
	if a == b {
		t.Error("two random strings should not collide")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Errorf("SanitizeString = %q", got)
	}
}
