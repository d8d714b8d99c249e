package validation

import (
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestTaskRequestValidator_ValidateCreate(t *testing.T) {
	validator := NewTaskRequestValidator()

	tests := []struct {
		name        string
		title       string
		description *string
		wantTitle   string
		wantDesc    *string
		wantFields  []string
	}{
		{
			name:      "valid title",
			title:     "Buy milk",
			wantTitle: "Buy milk",
		},
		{
			name:      "title is trimmed",
			title:     "  Buy milk \n",
			wantTitle: "Buy milk",
		},
		{
			name:      "title at limit",
			title:     strings.Repeat("x", 200),
			wantTitle: strings.Repeat("x", 200),
		},
		{
			name:      "multibyte title counted in characters",
			title:     strings.Repeat("é", 200),
			wantTitle: strings.Repeat("é", 200),
		},
		{
			name:        "description trimmed",
			title:       "t",
			description: strPtr("  two liters  "),
			wantTitle:   "t",
			wantDesc:    strPtr("two liters"),
		},
		{
			name:        "blank description collapses to absent",
			title:       "t",
			description: strPtr("   "),
			wantTitle:   "t",
			wantDesc:    nil,
		},
		{
			name:       "empty title",
			title:      "",
			wantFields: []string{"title"},
		},
		{
			name:       "blank title",
			title:      "   ",
			wantFields: []string{"title"},
		},
		{
			name:       "title too long",
			title:      strings.Repeat("x", 201),
			wantFields: []string{"title"},
		},
		{
			name:        "description too long",
			title:       "ok",
			description: strPtr(strings.Repeat("x", 1001)),
			wantFields:  []string{"description"},
		},
		{
			name:        "both fields invalid",
			title:       " ",
			description: strPtr(strings.Repeat("x", 1001)),
			wantFields:  []string{"title", "description"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, desc, err := validator.ValidateCreate(tt.title, tt.description)
			if len(tt.wantFields) > 0 {
				var errs Errors
				if !errors.As(err, &errs) {
					t.Fatalf("ValidateCreate() error = %v, want Errors", err)
				}
				if len(errs) != len(tt.wantFields) {
					t.Fatalf("ValidateCreate() returned %d field errors, want %d", len(errs), len(tt.wantFields))
				}
				for i, field := range tt.wantFields {
					if errs[i].Field != field {
						t.Errorf("errs[%d].Field = %s, want %s", i, errs[i].Field, field)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateCreate() error = %v, want nil", err)
			}
			if title != tt.wantTitle {
				t.Errorf("ValidateCreate() title = %q, want %q", title, tt.wantTitle)
			}
			if (desc == nil) != (tt.wantDesc == nil) || (desc != nil && *desc != *tt.wantDesc) {
				t.Errorf("ValidateCreate() description = %v, want %v", desc, tt.wantDesc)
			}
		})
	}
}

func TestTaskRequestValidator_ValidateUpdate(t *testing.T) {
	validator := NewTaskRequestValidator()

	t.Run("nothing provided", func(t *testing.T) {
		title, desc, err := validator.ValidateUpdate(nil, nil, false)
		if err != nil || title != nil || desc != nil {
			t.Errorf("ValidateUpdate() = %v, %v, %v, want nil, nil, nil", title, desc, err)
		}
	})

	t.Run("explicit null description clears", func(t *testing.T) {
		_, desc, err := validator.ValidateUpdate(nil, nil, true)
		if err != nil || desc != nil {
			t.Errorf("ValidateUpdate() description = %v, err = %v, want nil", desc, err)
		}
	})

	t.Run("title trimmed", func(t *testing.T) {
		title, _, err := validator.ValidateUpdate(strPtr(" New "), nil, false)
		if err != nil {
			t.Fatalf("ValidateUpdate() error = %v", err)
		}
		if title == nil || *title != "New" {
			t.Errorf("ValidateUpdate() title = %v, want New", title)
		}
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, _, err := validator.ValidateUpdate(strPtr("  "), nil, false)
		var errs Errors
		if !errors.As(err, &errs) || errs[0].Field != "title" {
			t.Errorf("ValidateUpdate() error = %v, want title field error", err)
		}
	})
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{
		{Field: "title", Message: "Title cannot be empty", Type: TypeTooShort},
		{Field: "description", Message: "too long", Type: TypeTooLong},
	}
	want := "title: Title cannot be empty; description: too long"
	if got := errs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
