package validation

import (
	"errors"
	"strings"
	"testing"
)

type catalog map[string]bool

func (c catalog) IsValidModel(id string) bool { return c[id] }

func TestChatRequestValidator_ValidateMessage(t *testing.T) {
	validator := NewChatRequestValidator(nil)

	tests := []struct {
		name    string
		message string
		want    string
		wantErr bool
	}{
		{name: "valid message", message: "add a task to buy milk", want: "add a task to buy milk"},
		{name: "trimmed", message: "  hello  ", want: "hello"},
		{name: "at limit", message: strings.Repeat("a", MaxMessageLength), want: strings.Repeat("a", MaxMessageLength)},
		{name: "empty message", message: "", wantErr: true},
		{name: "whitespace only", message: " \t\n", wantErr: true},
		{name: "too long", message: strings.Repeat("a", MaxMessageLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validator.ValidateMessage(tt.message)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ValidateMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatRequestValidator_ValidateChatRequest(t *testing.T) {
	validator := NewChatRequestValidator(catalog{"openai/gpt-4o-mini": true})
	zero := int64(0)
	valid := int64(7)

	tests := []struct {
		name           string
		message        string
		conversationID *int64
		model          string
		wantFields     []string
	}{
		{name: "minimal", message: "hi"},
		{name: "with conversation and model", message: "hi", conversationID: &valid, model: "openai/gpt-4o-mini"},
		{name: "unknown model", message: "hi", model: "nope", wantFields: []string{"model"}},
		{name: "non-positive conversation", message: "hi", conversationID: &zero, wantFields: []string{"conversation_id"}},
		{name: "everything wrong", message: "", conversationID: &zero, model: "nope", wantFields: []string{"message", "conversation_id", "model"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateChatRequest(tt.message, tt.conversationID, tt.model)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateChatRequest() error = %v, want nil", err)
				}
				return
			}
			var errs Errors
			if !errors.As(err, &errs) {
				t.Fatalf("ValidateChatRequest() error = %v, want Errors", err)
			}
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got %d field errors, want %d: %v", len(errs), len(tt.wantFields), errs)
			}
			for i, field := range tt.wantFields {
				if errs[i].Field != field {
					t.Errorf("errs[%d].Field = %s, want %s", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestChatRequestValidator_NilCatalogRejectsModel(t *testing.T) {
	validator := NewChatRequestValidator(nil)
	if _, err := validator.ValidateChatRequest("hi", nil, "gpt-4o"); err == nil {
		t.Error("ValidateChatRequest() error = nil, want model error")
	}
}
