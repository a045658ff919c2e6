package errors

import (
	"strings"
	"testing"
)

func TestValidateProjectID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "5e6f1c2a-7d3b-4c8e-9a10-1b2c3d4e5f60", false},
		{"simple", "lab-01", false},
		{"dots allowed", "lab.v2", false},
		{"empty", "", true},
		{"traversal", "..", true},
		{"nested traversal", "a/../b", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"null byte", "a\x00b", true},
		{"control char", "a\nb", true},
		{"too long", strings.Repeat("a", 257), true},
		{"max length", strings.Repeat("a", 256), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateProjectID(%q) code = %v, want %v", tt.id, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://localhost:3080", false},
		{"https://gns3.example.com", false},
		{"", true},
		{"ftp://example.com", true},
		{"localhost:3080", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeFetch, ErrCodeIconUnavailable, ErrCodeRender, ErrCodeWrite, ErrCodeCancelled,
		ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeNotFound, ErrCodeNetwork, ErrCodeInternal,
	}
	seen := make(map[Code]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate error code %q", c)
		}
		seen[c] = true
	}
}
