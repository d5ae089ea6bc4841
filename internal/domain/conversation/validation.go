package conversation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"parley-server/chat-api/internal/utils/idgen"
)

// TurnValidationConfig holds turn-level validation rules
type TurnValidationConfig struct {
	MaxTextLength  int
	MaxTitleLength int
}

// DefaultTurnValidationConfig returns the default turn validation rules
func DefaultTurnValidationConfig() *TurnValidationConfig {
	return &TurnValidationConfig{
		MaxTextLength:  32768,
		MaxTitleLength: 256,
	}
}

// TurnValidator handles input validation for turn submission and branching
type TurnValidator struct {
	config *TurnValidationConfig
}

// NewTurnValidator creates a validator for turn inputs
func NewTurnValidator(config *TurnValidationConfig) *TurnValidator {
	if config == nil {
		config = DefaultTurnValidationConfig()
	}
	return &TurnValidator{config: config}
}

// ValidateText validates user-supplied turn text
func (v *TurnValidator) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if utf8.RuneCountInString(text) > v.config.MaxTextLength {
		return fmt.Errorf("text cannot exceed %d characters", v.config.MaxTextLength)
	}
	if strings.Contains(text, "\x00") {
		return fmt.Errorf("text cannot contain null bytes")
	}
	return nil
}

// ValidateConversationID validates conversation ID format
func (v *TurnValidator) ValidateConversationID(id string) error {
	if id == "" {
		return fmt.Errorf("conversation ID cannot be empty")
	}
	if !idgen.ValidateIDFormat(id, "conv") {
		return fmt.Errorf("conversation ID must have format conv_<id>, got: %s", id)
	}
	return nil
}

// ValidateMessageID validates message ID format
func (v *TurnValidator) ValidateMessageID(id string) error {
	if id == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if !idgen.ValidateIDFormat(id, "msg") {
		return fmt.Errorf("message ID must have format msg_<id>, got: %s", id)
	}
	return nil
}

// ValidateVariantID validates variant ID format
func (v *TurnValidator) ValidateVariantID(id string) error {
	if id == "" {
		return fmt.Errorf("variant ID cannot be empty")
	}
	if !idgen.ValidateIDFormat(id, "var") {
		return fmt.Errorf("variant ID must have format var_<id>, got: %s", id)
	}
	return nil
}

// ValidateProviderID validates that a provider reference was supplied
func (v *TurnValidator) ValidateProviderID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("provider ID cannot be empty")
	}
	return nil
}
