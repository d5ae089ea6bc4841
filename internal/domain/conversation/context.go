package conversation

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"parley-server/chat-api/internal/domain/inference"
)

// ContextAssembler builds the model-facing history from a conversation's
// messages. Provider switches never change the assembled shape: every provider
// sees the same role/content pairs regardless of which providers produced them.
type ContextAssembler struct{}

func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// History converts the active thread into model-facing messages. Error turns
// stay visible to users but are withheld from providers, so a failed
// generation never contaminates later completions.
func (a *ContextAssembler) History(messages []*Message) []inference.Message {
	history := make([]inference.Message, 0, len(messages))
	for _, msg := range sortBySequence(messages) {
		if !msg.IsActive || msg.IsError {
			continue
		}
		history = append(history, inference.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return history
}

// FrozenBefore returns the active messages strictly preceding original in
// sequence order. Reruns are generated against this snapshot, so every variant
// for one message answers the same context even if it is produced much later.
func (a *ContextAssembler) FrozenBefore(messages []*Message, original *Message) []*Message {
	frozen := make([]*Message, 0, len(messages))
	for _, msg := range sortBySequence(messages) {
		if !msg.IsActive || msg.Sequence >= original.Sequence {
			continue
		}
		frozen = append(frozen, msg)
	}
	return frozen
}

// ContextHash fingerprints a model-facing history. Two variants with equal
// hashes were generated against byte-identical context.
func (a *ContextAssembler) ContextHash(history []inference.Message) string {
	h := sha256.New()
	for _, msg := range history {
		h.Write([]byte(msg.Role))
		h.Write([]byte{'\n'})
		h.Write([]byte(msg.Content))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sortBySequence(messages []*Message) []*Message {
	sorted := make([]*Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return sorted
}
