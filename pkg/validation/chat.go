package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxMessageLength = 4000

// ModelCatalog reports whether a model may be requested.
type ModelCatalog interface {
	IsValidModel(modelID string) bool
}

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct {
	models ModelCatalog
}

// NewChatRequestValidator creates a new ChatRequestValidator. A nil
// catalog accepts only requests that leave the model unset.
func NewChatRequestValidator(models ModelCatalog) *ChatRequestValidator {
	return &ChatRequestValidator{models: models}
}

// ValidateMessage trims a chat message and checks its length
func (v *ChatRequestValidator) ValidateMessage(message string) (string, error) {
	var errs Errors
	message = v.checkMessage(message, &errs)
	return message, errs.orNil()
}

// ValidateChatRequest validates a complete chat request and returns the
// trimmed message.
func (v *ChatRequestValidator) ValidateChatRequest(message string, conversationID *int64, model string) (string, error) {
	var errs Errors
	message = v.checkMessage(message, &errs)

	if conversationID != nil && *conversationID <= 0 {
		errs.add("conversation_id", "Conversation ID must be a positive integer", TypeInvalid)
	}

	if model != "" && (v.models == nil || !v.models.IsValidModel(model)) {
		errs.add("model", fmt.Sprintf("Model %q is not available", model), TypeInvalid)
	}

	if len(errs) > 0 {
		return "", errs
	}
	return message, nil
}

func (v *ChatRequestValidator) checkMessage(message string, errs *Errors) string {
	message = strings.TrimSpace(message)
	switch n := utf8.RuneCountInString(message); {
	case n == 0:
		errs.add("message", "Message cannot be empty", TypeTooShort)
	case n > MaxMessageLength:
		errs.add("message", fmt.Sprintf("Message must be at most %d characters, got %d", MaxMessageLength, n), TypeTooLong)
	}
	return message
}
