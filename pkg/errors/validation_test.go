package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "p42", false},
		{"valid uuid", "8c1d3f9e-6a43-4f65-9f1e-1f6c0c1b2a77", false},
		{"valid unicode", "józef-1890", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidInput {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	supported := []string{"svg", "png", "json", "dot"}
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"SVG", true}, // case-sensitive
		{"pdf", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format, supported)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	supported := []string{"svg", "png"}

	if err := ValidateFormats([]string{"svg", "png"}, supported); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "gif"}, supported); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil, supported); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}
