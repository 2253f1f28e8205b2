package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/counsel-ai/memory-engine/internal/model"
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateRecordID validates a conversation record ID.
func ValidateRecordID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid record ID format")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if len(id) == 0 {
		return errors.New("session ID cannot be empty")
	}
	if len(id) > 128 {
		return errors.New("session ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("session ID must be valid UTF-8")
	}
	return nil
}

// ValidateRole validates a message role.
func ValidateRole(role model.Role) error {
	switch role {
	case model.RoleUser, model.RoleAssistant, model.RoleSystem:
		return nil
	default:
		return errors.New("invalid message role")
	}
}
