package requests

// SubmitTurnRequest submits one user turn. An empty conversation_id starts a
// new conversation.
type SubmitTurnRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text" binding:"required"`
	Provider       string `json:"provider" binding:"required"`
	Model          string `json:"model,omitempty"`
}

// RerunRequest asks for an alternate response to a committed assistant
// message, usually from a different provider or model.
type RerunRequest struct {
	Provider string `json:"provider" binding:"required"`
	Model    string `json:"model,omitempty"`
}
