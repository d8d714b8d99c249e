package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// TaskRequestValidator validates and normalizes task input
type TaskRequestValidator struct{}

// NewTaskRequestValidator creates a new TaskRequestValidator
func NewTaskRequestValidator() *TaskRequestValidator {
	return &TaskRequestValidator{}
}

// NormalizeTitle trims a title and checks its length.
func (v *TaskRequestValidator) NormalizeTitle(title string) (string, error) {
	var errs Errors
	title = v.checkTitle(title, &errs)
	return title, errs.orNil()
}

// NormalizeDescription trims a description. A nil or blank description
// comes back as nil.
func (v *TaskRequestValidator) NormalizeDescription(description *string) (*string, error) {
	var errs Errors
	description = v.checkDescription(description, &errs)
	return description, errs.orNil()
}

// ValidateCreate normalizes the fields of a new task, reporting every
// invalid field at once.
func (v *TaskRequestValidator) ValidateCreate(title string, description *string) (string, *string, error) {
	var errs Errors
	title = v.checkTitle(title, &errs)
	description = v.checkDescription(description, &errs)
	if len(errs) > 0 {
		return "", nil, errs
	}
	return title, description, nil
}

// ValidateUpdate normalizes the provided fields of a partial update.
// A nil title means the title is left unchanged.
func (v *TaskRequestValidator) ValidateUpdate(title *string, description *string, descriptionSet bool) (*string, *string, error) {
	var errs Errors
	if title != nil {
		trimmed := v.checkTitle(*title, &errs)
		title = &trimmed
	}
	if descriptionSet {
		description = v.checkDescription(description, &errs)
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}
	return title, description, nil
}

func (v *TaskRequestValidator) checkTitle(title string, errs *Errors) string {
	title = strings.TrimSpace(title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs.add("title", "Title cannot be empty", TypeTooShort)
	case n > MaxTitleLength:
		errs.add("title", fmt.Sprintf("Title must be at most %d characters, got %d", MaxTitleLength, n), TypeTooLong)
	}
	return title
}

func (v *TaskRequestValidator) checkDescription(description *string, errs *Errors) *string {
	if description == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil
	}
	if n := utf8.RuneCountInString(trimmed); n > MaxDescriptionLength {
		errs.add("description", fmt.Sprintf("Description must be at most %d characters, got %d", MaxDescriptionLength, n), TypeTooLong)
	}
	return &trimmed
}
