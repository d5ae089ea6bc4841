package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parley-server/chat-api/internal/domain/inference"
	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/utils/idgen"
	"parley-server/chat-api/internal/utils/platformerrors"
)

const (
	conversationIDLength = 16
	messageIDLength      = 16
	variantIDLength      = 16
)

// SubmitTurnInput carries one user turn. An empty ConversationID starts a new
// conversation titled from the text.
type SubmitTurnInput struct {
	UserID         uint
	ConversationID string
	Text           string
	ProviderID     string
	Model          string // empty selects the provider's default model
}

// TurnResult is the outcome of a completed turn. AssistantMessage is the new
// active assistant message; when the upstream call failed it is an error turn
// with IsError set.
type TurnResult struct {
	Conversation     *Conversation
	UserMessage      *Message
	AssistantMessage *Message
}

// RerunInput requests an alternate response for a committed assistant message.
type RerunInput struct {
	UserID            uint
	OriginalMessageID string
	ProviderID        string
	Model             string
}

// SelectVariantInput commits one pending variant for a message.
type SelectVariantInput struct {
	UserID            uint
	OriginalMessageID string
	VariantID         string
}

// SelectionResult reports a committed branch decision.
type SelectionResult struct {
	NewMessage         *Message
	DeactivatedMessage *Message
	Variant            *Variant
}

// Service is the handler-facing surface of the engine.
type Service interface {
	SubmitTurn(ctx context.Context, input SubmitTurnInput) (*TurnResult, error)
	Rerun(ctx context.Context, input RerunInput) (*Variant, error)
	SelectVariant(ctx context.Context, input SelectVariantInput) (*SelectionResult, error)
	DiscardVariants(ctx context.Context, userID uint, originalMessageID string) (int, error)
	GetVariants(ctx context.Context, userID uint, originalMessageID string) ([]*Variant, error)
	GetActiveThread(ctx context.Context, userID uint, conversationID string) (*Conversation, []*Message, error)
	GetConversation(ctx context.Context, userID uint, conversationID string, includeInactive bool) (*Conversation, error)
	ListConversations(ctx context.Context, userID uint, pagination *Pagination) ([]*Conversation, int64, error)
	DeleteConversation(ctx context.Context, userID uint, conversationID string) error
}

// Engine owns all thread mutation. Every isActive flip and every append goes
// through one of its named operations; nothing outside the engine touches the
// message store directly.
type Engine struct {
	repo      Repository
	variants  VariantPool
	catalog   provider.Catalog
	generator inference.Generator
	assembler *ContextAssembler
	validator *TurnValidator
	locks     *turnLocks
	logger    zerolog.Logger
}

// NewEngine creates a conversation engine.
func NewEngine(
	repo Repository,
	variants VariantPool,
	catalog provider.Catalog,
	generator inference.Generator,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		repo:      repo,
		variants:  variants,
		catalog:   catalog,
		generator: generator,
		assembler: NewContextAssembler(),
		validator: NewTurnValidator(nil),
		locks:     newTurnLocks(),
		logger:    logger.With().Str("component", "conversation_engine").Logger(),
	}
}

var _ Service = (*Engine)(nil)

// ===============================================
// Turn Submission
// ===============================================

// SubmitTurn appends a user message, requests a completion for the active
// thread, and appends the assistant response. An upstream failure is recorded
// as an active error turn so the thread stays linear; once the user message is
// appended the operation always completes with a response of one kind or the
// other.
func (e *Engine) SubmitTurn(ctx context.Context, input SubmitTurnInput) (*TurnResult, error) {
	if err := e.validator.ValidateText(input.Text); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid turn text", err, "f1a2b3c4-d5e6-4f7a-8b9c-0d1e2f3a4b5c")
	}

	prov, model, err := e.resolveProviderModel(ctx, input.ProviderID, input.Model)
	if err != nil {
		return nil, err
	}

	conv, err := e.resolveTargetConversation(ctx, input)
	if err != nil {
		return nil, err
	}

	if !e.locks.Acquire(conv.ID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "a turn is already in progress for this conversation", nil, "a2b3c4d5-e6f7-4a8b-9c0d-1e2f3a4b5c6d")
	}
	defer e.locks.Release(conv.ID)

	total, err := e.repo.CountMessages(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count messages")
	}

	userMsgID, err := idgen.GenerateSecureID("msg", messageIDLength)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate message ID", err, "b3c4d5e6-f7a8-4b9c-0d1e-2f3a4b5c6d7e")
	}
	userMsg := NewUserMessage(userMsgID, conv.ID, input.Text, total+1)
	if err := e.repo.AppendMessage(ctx, userMsg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append user message")
	}

	active, err := e.repo.ActiveMessages(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load active thread")
	}
	history := e.assembler.History(active)

	result, genErr := e.generator.Generate(ctx, prov, model, history)
	if genErr != nil {
		return e.recordErrorTurn(ctx, conv, userMsg, prov, model, total+2, genErr)
	}

	assistantID, err := idgen.GenerateSecureID("msg", messageIDLength)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate message ID", err, "c4d5e6f7-a8b9-4c0d-1e2f-3a4b5c6d7e8f")
	}
	assistant := NewAssistantMessage(assistantID, conv.ID, result.Content, total+2, prov.PublicID, model)
	assistant.TokensIn = result.TokensIn
	assistant.TokensOut = result.TokensOut
	assistant.LatencyMs = result.LatencyMs
	if err := e.repo.AppendMessage(ctx, assistant); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append assistant message")
	}

	conv.TotalTokens += result.TokensIn + result.TokensOut
	conv.UpdatedAt = time.Now()
	if err := e.repo.Update(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}

	e.logger.Info().
		Str("conversation_id", conv.PublicID).
		Str("provider_id", prov.PublicID).
		Str("model", model).
		Int("tokens_in", result.TokensIn).
		Int("tokens_out", result.TokensOut).
		Int64("latency_ms", result.LatencyMs).
		Msg("turn completed")

	return &TurnResult{Conversation: conv, UserMessage: userMsg, AssistantMessage: assistant}, nil
}

// recordErrorTurn materializes an upstream failure as an active error turn.
// The thread must not be left without a response to its last user message.
func (e *Engine) recordErrorTurn(ctx context.Context, conv *Conversation, userMsg *Message, prov *provider.Provider, model string, sequence int, genErr error) (*TurnResult, error) {
	errorID, err := idgen.GenerateSecureID("msg", messageIDLength)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate message ID", err, "d5e6f7a8-b9c0-4d1e-2f3a-4b5c6d7e8f9a")
	}

	errMsg := NewErrorMessage(errorID, conv.ID, errorTurnContent(prov, genErr), sequence, prov.PublicID, model)
	if err := e.repo.AppendMessage(ctx, errMsg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append error turn")
	}

	conv.UpdatedAt = time.Now()
	if err := e.repo.Update(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}

	e.logger.Warn().
		Str("conversation_id", conv.PublicID).
		Str("provider_id", prov.PublicID).
		Str("model", model).
		Err(genErr).
		Msg("turn failed, error turn recorded")

	return &TurnResult{Conversation: conv, UserMessage: userMsg, AssistantMessage: errMsg}, nil
}

// errorTurnContent renders a human-readable summary for a failed generation.
func errorTurnContent(prov *provider.Provider, genErr error) string {
	name := prov.DisplayName
	if name == "" {
		name = prov.PublicID
	}

	kind, ok := inference.KindOf(genErr)
	if !ok {
		return fmt.Sprintf("%s could not complete this response. Please try again.", name)
	}

	switch kind {
	case inference.FailureRateLimited:
		return fmt.Sprintf("%s is rate limiting requests. Please wait a moment and try again.", name)
	case inference.FailureTimeout:
		return fmt.Sprintf("%s did not respond in time. Please try again.", name)
	case inference.FailureInvalidModel:
		return fmt.Sprintf("%s rejected the requested model. Pick a different model and try again.", name)
	case inference.FailureProviderUnavailable:
		return fmt.Sprintf("%s is currently unavailable. Please try again later.", name)
	default:
		return fmt.Sprintf("%s could not complete this response. Please try again.", name)
	}
}

// ===============================================
// Reruns & Branching
// ===============================================

// Rerun generates an alternate response for a committed assistant message
// against the frozen history that preceded it. The result lands in the variant
// pool; the committed thread is never touched, and a failed rerun leaves no
// trace. Concurrent reruns are allowed and do not serialize with turns.
func (e *Engine) Rerun(ctx context.Context, input RerunInput) (*Variant, error) {
	original, conv, err := e.getOwnedAssistantMessage(ctx, input.UserID, input.OriginalMessageID)
	if err != nil {
		return nil, err
	}

	prov, model, err := e.resolveProviderModel(ctx, input.ProviderID, input.Model)
	if err != nil {
		return nil, err
	}

	if original.ProvenanceMatches(prov.PublicID, model) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "rerun must use a different provider or model than the original message", nil, "e6f7a8b9-c0d1-4e2f-3a4b-5c6d7e8f9a0b")
	}

	active, err := e.repo.ActiveMessages(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load active thread")
	}
	frozen := e.assembler.FrozenBefore(active, original)
	history := e.assembler.History(frozen)

	result, genErr := e.generator.Generate(ctx, prov, model, history)
	if genErr != nil {
		return nil, e.mapInferenceError(ctx, genErr)
	}

	variantID, err := idgen.GenerateSecureID("var", variantIDLength)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate variant ID", err, "f7a8b9c0-d1e2-4f3a-4b5c-6d7e8f9a0b1c")
	}

	variant := &Variant{
		PublicID:          variantID,
		OriginalMessageID: original.PublicID,
		ProviderID:        prov.PublicID,
		Model:             model,
		Content:           result.Content,
		TokensIn:          result.TokensIn,
		TokensOut:         result.TokensOut,
		LatencyMs:         result.LatencyMs,
		ContextHash:       e.assembler.ContextHash(history),
		CreatedAt:         time.Now(),
	}
	if err := e.variants.Add(ctx, variant); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store variant")
	}

	e.logger.Info().
		Str("conversation_id", conv.PublicID).
		Str("original_message_id", original.PublicID).
		Str("variant_id", variant.PublicID).
		Str("provider_id", prov.PublicID).
		Str("model", model).
		Msg("variant generated")

	return variant, nil
}

// SelectVariant commits one pending variant: the new assistant message is
// appended first, the superseded message is deactivated only after the append
// is durable, and the whole variant set for the message is discarded. The
// append-then-deactivate order guarantees the thread never momentarily loses
// its response at that turn position.
func (e *Engine) SelectVariant(ctx context.Context, input SelectVariantInput) (*SelectionResult, error) {
	if err := e.validator.ValidateVariantID(input.VariantID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid variant ID", err, "a8b9c0d1-e2f3-4a4b-5c6d-7e8f9a0b1c2d")
	}

	original, conv, err := e.getOwnedAssistantMessage(ctx, input.UserID, input.OriginalMessageID)
	if err != nil {
		return nil, err
	}

	if !e.locks.Acquire(conv.ID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "a turn is already in progress for this conversation", nil, "b9c0d1e2-f3a4-4b5c-6d7e-8f9a0b1c2d3e")
	}
	defer e.locks.Release(conv.ID)

	// Re-read under the lock: a concurrent selection may have won the race
	// between the ownership check and the lock acquisition.
	original, err = e.repo.FindMessageByPublicID(ctx, original.PublicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "original message not found")
	}
	if !original.IsActive {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "message has already been branched", nil, "c0d1e2f3-a4b5-4c6d-7e8f-9a0b1c2d3e4f")
	}

	variant, err := e.variants.FindByPublicID(ctx, original.PublicID, input.VariantID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "variant not found")
	}

	total, err := e.repo.CountMessages(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count messages")
	}

	newID, err := idgen.GenerateSecureID("msg", messageIDLength)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate message ID", err, "d1e2f3a4-b5c6-4d7e-8f9a-0b1c2d3e4f5a")
	}
	newMsg := NewAssistantMessage(newID, conv.ID, variant.Content, total+1, variant.ProviderID, variant.Model)
	newMsg.TokensIn = variant.TokensIn
	newMsg.TokensOut = variant.TokensOut
	newMsg.LatencyMs = variant.LatencyMs
	if err := e.repo.AppendMessage(ctx, newMsg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append branched message")
	}

	if err := e.repo.DeactivateMessage(ctx, original.ID); err != nil {
		// The new message is already durable. The pool is left intact so the
		// caller can observe the inconsistency and retry the deactivation path.
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to deactivate superseded message")
	}
	original.IsActive = false

	conv.TotalTokens += variant.TokensIn + variant.TokensOut
	conv.UpdatedAt = time.Now()
	if err := e.repo.Update(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}

	if _, err := e.variants.DiscardForMessage(ctx, original.PublicID); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to discard variants")
	}
	variant.IsCanonical = true

	e.logger.Info().
		Str("conversation_id", conv.PublicID).
		Str("deactivated_message_id", original.PublicID).
		Str("new_message_id", newMsg.PublicID).
		Str("variant_id", variant.PublicID).
		Msg("variant selected, conversation branched")

	return &SelectionResult{NewMessage: newMsg, DeactivatedMessage: original, Variant: variant}, nil
}

// DiscardVariants is the explicit "keep original" decision: the variant set is
// dropped and the committed thread is untouched. Discarding an empty set is a
// no-op, so the operation is idempotent.
func (e *Engine) DiscardVariants(ctx context.Context, userID uint, originalMessageID string) (int, error) {
	original, _, err := e.getOwnedAssistantMessage(ctx, userID, originalMessageID)
	if err != nil {
		return 0, err
	}

	removed, err := e.variants.DiscardForMessage(ctx, original.PublicID)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to discard variants")
	}
	return removed, nil
}

// GetVariants lists pending variants for a committed assistant message.
func (e *Engine) GetVariants(ctx context.Context, userID uint, originalMessageID string) ([]*Variant, error) {
	original, _, err := e.getOwnedAssistantMessage(ctx, userID, originalMessageID)
	if err != nil {
		return nil, err
	}

	variants, err := e.variants.ListForMessage(ctx, original.PublicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list variants")
	}
	return variants, nil
}

// ===============================================
// Reads & Lifecycle
// ===============================================

// GetActiveThread returns the conversation and its active messages in
// sequence order.
func (e *Engine) GetActiveThread(ctx context.Context, userID uint, conversationID string) (*Conversation, []*Message, error) {
	conv, err := e.getOwnedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := e.repo.ActiveMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load active thread")
	}
	return conv, sortBySequence(messages), nil
}

// GetConversation returns a conversation with its messages attached. With
// includeInactive the full audit history is returned, branches included.
func (e *Engine) GetConversation(ctx context.Context, userID uint, conversationID string, includeInactive bool) (*Conversation, error) {
	conv, err := e.getOwnedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	var messages []*Message
	if includeInactive {
		messages, err = e.repo.AllMessages(ctx, conv.ID)
	} else {
		messages, err = e.repo.ActiveMessages(ctx, conv.ID)
	}
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}

	conv.Messages = sortBySequence(messages)
	return conv, nil
}

// ListConversations returns the caller's conversations, newest first.
func (e *Engine) ListConversations(ctx context.Context, userID uint, pagination *Pagination) ([]*Conversation, int64, error) {
	filter := ConversationFilter{UserID: &userID}

	total, err := e.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count conversations")
	}

	conversations, err := e.repo.FindByFilter(ctx, filter, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return conversations, total, nil
}

// DeleteConversation removes a conversation and drops any pending variants
// attached to its messages.
func (e *Engine) DeleteConversation(ctx context.Context, userID uint, conversationID string) error {
	conv, err := e.getOwnedConversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	if !e.locks.Acquire(conv.ID) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "a turn is already in progress for this conversation", nil, "e2f3a4b5-c6d7-4e8f-9a0b-1c2d3e4f5a6b")
	}
	defer e.locks.Release(conv.ID)

	messages, err := e.repo.AllMessages(ctx, conv.ID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	for _, msg := range messages {
		if msg.Role != RoleAssistant {
			continue
		}
		if _, err := e.variants.DiscardForMessage(ctx, msg.PublicID); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to discard variants")
		}
	}

	if err := e.repo.Delete(ctx, conv.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	return nil
}

// ===============================================
// Helpers
// ===============================================

// resolveTargetConversation loads the addressed conversation or creates a new
// one when no ID was supplied.
func (e *Engine) resolveTargetConversation(ctx context.Context, input SubmitTurnInput) (*Conversation, error) {
	if input.ConversationID != "" {
		return e.getOwnedConversation(ctx, input.UserID, input.ConversationID)
	}

	publicID, err := idgen.GenerateSecureID("conv", conversationIDLength)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate conversation ID", err, "f3a4b5c6-d7e8-4f9a-0b1c-2d3e4f5a6b7c")
	}

	conv := NewConversation(publicID, input.UserID, TitleFromText(input.Text))
	if err := e.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, nil
}

// resolveProviderModel validates the provider reference and applies the
// deterministic default-model rule: index 0 of the provider's model list.
func (e *Engine) resolveProviderModel(ctx context.Context, providerID, model string) (*provider.Provider, string, error) {
	if err := e.validator.ValidateProviderID(providerID); err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid provider", err, "a4b5c6d7-e8f9-4a0b-1c2d-3e4f5a6b7c8d")
	}

	prov, ok := e.catalog.Lookup(providerID)
	if !ok {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("unknown provider: %s", providerID), nil, "b5c6d7e8-f9a0-4b1c-2d3e-4f5a6b7c8d9e")
	}
	if !prov.Available {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("provider is not available: %s", providerID), nil, "c6d7e8f9-a0b1-4c2d-3e4f-5a6b7c8d9e0f")
	}

	if model == "" {
		defaultModel, ok := prov.DefaultModel()
		if !ok {
			return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("provider has no models available: %s", providerID), nil, "d7e8f9a0-b1c2-4d3e-4f5a-6b7c8d9e0f1a")
		}
		return prov, defaultModel, nil
	}

	if !prov.HasModel(model) {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("provider %s does not expose model: %s", providerID, model), nil, "e8f9a0b1-c2d3-4e4f-5a6b-7c8d9e0f1a2b")
	}
	return prov, model, nil
}

// getOwnedConversation retrieves a conversation by public ID and validates
// ownership. Foreign conversations surface as not found, never as forbidden.
func (e *Engine) getOwnedConversation(ctx context.Context, userID uint, publicID string) (*Conversation, error) {
	if err := e.validator.ValidateConversationID(publicID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid conversation ID", err, "f9a0b1c2-d3e4-4f5a-6b7c-8d9e0f1a2b3c")
	}

	conv, err := e.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if !conv.IsOwnedBy(userID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "a0b1c2d3-e4f5-4a6b-7c8d-9e0f1a2b3c4d")
	}
	return conv, nil
}

// getOwnedAssistantMessage resolves a rerun or branching target: an active,
// non-error assistant message in a conversation owned by the caller.
func (e *Engine) getOwnedAssistantMessage(ctx context.Context, userID uint, messagePublicID string) (*Message, *Conversation, error) {
	if err := e.validator.ValidateMessageID(messagePublicID); err != nil {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid message ID", err, "b1c2d3e4-f5a6-4b7c-8d9e-0f1a2b3c4d5e")
	}

	msg, err := e.repo.FindMessageByPublicID(ctx, messagePublicID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "message not found")
	}

	conv, err := e.repo.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if !conv.IsOwnedBy(userID) {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "message not found", nil, "c2d3e4f5-a6b7-4c8d-9e0f-1a2b3c4d5e6f")
	}

	if msg.Role != RoleAssistant {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message is not an assistant message", nil, "d3e4f5a6-b7c8-4d9e-0f1a-2b3c4d5e6f7a")
	}
	if msg.IsError {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "error turns cannot be rerun or branched", nil, "e4f5a6b7-c8d9-4e0f-1a2b-3c4d5e6f7a8b")
	}
	if !msg.IsActive {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "message has already been branched", nil, "f5a6b7c8-d9e0-4f1a-2b3c-4d5e6f7a8b9c")
	}

	return msg, conv, nil
}

// mapInferenceError converts a classified generation failure into a platform
// error for callers that receive the failure directly.
func (e *Engine) mapInferenceError(ctx context.Context, genErr error) error {
	kind, ok := inference.KindOf(genErr)
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "inference request failed", genErr, "a6b7c8d9-e0f1-4a2b-3c4d-5e6f7a8b9c0d")
	}

	switch kind {
	case inference.FailureInvalidModel:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "provider rejected the requested model", genErr, "b7c8d9e0-f1a2-4b3c-4d5e-6f7a8b9c0d1e")
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("inference request failed: %s", kind), genErr, "c8d9e0f1-a2b3-4c4d-5e6f-7a8b9c0d1e2f")
	}
}
