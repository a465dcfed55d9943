package api

import (
	"strings"
	"testing"
)

type testValidateStruct struct {
	Title    string `validate:"required,min=1,max=255"`
	Priority string `validate:"omitempty,oneof=low medium high"`
}

func TestValidate_ValidInput(t *testing.T) {
	s := testValidateStruct{
		Title:    "Printer jam on 3F",
		Priority: "high",
	}
	errs := Validate(s)
	if errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	s := testValidateStruct{Title: ""}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["title"] != "is required" {
		t.Errorf("title error = %q, want %q", errs["title"], "is required")
	}
}

func TestValidate_MaxLength(t *testing.T) {
	s := testValidateStruct{Title: strings.Repeat("a", 256)}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["title"] != "must be at most 255 characters" {
		t.Errorf("title error = %q, want %q", errs["title"], "must be at most 255 characters")
	}
}

func TestValidate_InvalidOneOf(t *testing.T) {
	s := testValidateStruct{Title: "ok", Priority: "urgent"}
	errs := Validate(s)
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if errs["priority"] != "must be one of: low medium high" {
		t.Errorf("priority error = %q, want %q", errs["priority"], "must be one of: low medium high")
	}
}

func TestValidate_OmitsEmptyOptional(t *testing.T) {
	s := testValidateStruct{Title: "ok"}
	errs := Validate(s)
	if errs != nil {
		t.Errorf("expected no errors for empty optional fields, got %v", errs)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Title", "title"},
		{"AssigneeUUID", "assignee_u_u_i_d"},
		{"LinkedTicketID", "linked_ticket_i_d"},
		{"simple", "simple"},
		{"", ""},
	}

	for _, tt := range tests {
		got := toSnakeCase(tt.input)
		if got != tt.expected {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
