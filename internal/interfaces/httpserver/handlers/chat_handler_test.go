package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/domain/provider"
	"parley-server/chat-api/internal/domain/user"
	"parley-server/chat-api/internal/interfaces/httpserver/handlers"
	"parley-server/chat-api/internal/utils/platformerrors"
)

// MockChatService is a mock implementation of conversation.Service for
// testing. Only the methods a test cares about need a func assigned.
type MockChatService struct {
	SubmitTurnFunc         func(ctx context.Context, input conversation.SubmitTurnInput) (*conversation.TurnResult, error)
	RerunFunc              func(ctx context.Context, input conversation.RerunInput) (*conversation.Variant, error)
	SelectVariantFunc      func(ctx context.Context, input conversation.SelectVariantInput) (*conversation.SelectionResult, error)
	DiscardVariantsFunc    func(ctx context.Context, userID uint, originalMessageID string) (int, error)
	GetVariantsFunc        func(ctx context.Context, userID uint, originalMessageID string) ([]*conversation.Variant, error)
	GetActiveThreadFunc    func(ctx context.Context, userID uint, conversationID string) (*conversation.Conversation, []*conversation.Message, error)
	GetConversationFunc    func(ctx context.Context, userID uint, conversationID string, includeInactive bool) (*conversation.Conversation, error)
	ListConversationsFunc  func(ctx context.Context, userID uint, pagination *conversation.Pagination) ([]*conversation.Conversation, int64, error)
	DeleteConversationFunc func(ctx context.Context, userID uint, conversationID string) error
}

func (m *MockChatService) SubmitTurn(ctx context.Context, input conversation.SubmitTurnInput) (*conversation.TurnResult, error) {
	if m.SubmitTurnFunc != nil {
		return m.SubmitTurnFunc(ctx, input)
	}
	return nil, nil
}

func (m *MockChatService) Rerun(ctx context.Context, input conversation.RerunInput) (*conversation.Variant, error) {
	if m.RerunFunc != nil {
		return m.RerunFunc(ctx, input)
	}
	return nil, nil
}

func (m *MockChatService) SelectVariant(ctx context.Context, input conversation.SelectVariantInput) (*conversation.SelectionResult, error) {
	if m.SelectVariantFunc != nil {
		return m.SelectVariantFunc(ctx, input)
	}
	return nil, nil
}

func (m *MockChatService) DiscardVariants(ctx context.Context, userID uint, originalMessageID string) (int, error) {
	if m.DiscardVariantsFunc != nil {
		return m.DiscardVariantsFunc(ctx, userID, originalMessageID)
	}
	return 0, nil
}

func (m *MockChatService) GetVariants(ctx context.Context, userID uint, originalMessageID string) ([]*conversation.Variant, error) {
	if m.GetVariantsFunc != nil {
		return m.GetVariantsFunc(ctx, userID, originalMessageID)
	}
	return nil, nil
}

func (m *MockChatService) GetActiveThread(ctx context.Context, userID uint, conversationID string) (*conversation.Conversation, []*conversation.Message, error) {
	if m.GetActiveThreadFunc != nil {
		return m.GetActiveThreadFunc(ctx, userID, conversationID)
	}
	return nil, nil, nil
}

func (m *MockChatService) GetConversation(ctx context.Context, userID uint, conversationID string, includeInactive bool) (*conversation.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, userID, conversationID, includeInactive)
	}
	return nil, nil
}

func (m *MockChatService) ListConversations(ctx context.Context, userID uint, pagination *conversation.Pagination) ([]*conversation.Conversation, int64, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, userID, pagination)
	}
	return nil, 0, nil
}

func (m *MockChatService) DeleteConversation(ctx context.Context, userID uint, conversationID string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, userID, conversationID)
	}
	return nil
}

// MockUserRepository resolves every subject to a fixed user.
type MockUserRepository struct {
	ResolveSubjectFunc func(ctx context.Context, subject string) (*user.User, error)
}

func (m *MockUserRepository) ResolveSubject(ctx context.Context, subject string) (*user.User, error) {
	if m.ResolveSubjectFunc != nil {
		return m.ResolveSubjectFunc(ctx, subject)
	}
	return &user.User{ID: 1, Subject: subject}, nil
}

type staticCatalog struct {
	providers []*provider.Provider
}

func (c *staticCatalog) Snapshot() []*provider.Provider { return c.providers }

func (c *staticCatalog) Lookup(publicID string) (*provider.Provider, bool) {
	for _, p := range c.providers {
		if p.PublicID == publicID {
			return p, true
		}
	}
	return nil, false
}

func newTestRouter(service conversation.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	catalog := &staticCatalog{providers: []*provider.Provider{
		{PublicID: "prov_x", DisplayName: "Provider X", Kind: provider.KindOpenAI, Available: true, Models: []string{"model-x-1"}},
	}}
	hp := handlers.NewProvider(service, &MockUserRepository{}, catalog, zerolog.Nop())

	v1 := engine.Group("/v1")
	v1.POST("/chat/turns", hp.Chat.SubmitTurn)
	v1.GET("/conversations", hp.Chat.List)
	v1.GET("/conversations/:conversation_id", hp.Chat.Get)
	v1.DELETE("/conversations/:conversation_id", hp.Chat.Delete)
	v1.POST("/messages/:message_id/variants", hp.Variant.Rerun)
	v1.POST("/messages/:message_id/variants/:variant_id/select", hp.Variant.Select)
	v1.GET("/providers", hp.Catalog.List)
	return engine
}

func TestChatHandler_SubmitTurn(t *testing.T) {
	service := &MockChatService{
		SubmitTurnFunc: func(ctx context.Context, input conversation.SubmitTurnInput) (*conversation.TurnResult, error) {
			if input.Text != "hello" || input.ProviderID != "prov_x" {
				t.Errorf("unexpected input: %+v", input)
			}
			title := "hello"
			return &conversation.TurnResult{
				Conversation:     &conversation.Conversation{PublicID: "conv_a3f8d2k9p1m4n7q2", Title: &title, Status: conversation.ConversationStatusActive, TotalTokens: 30},
				UserMessage:      &conversation.Message{PublicID: "msg_u", Role: conversation.RoleUser, Content: "hello", Sequence: 1, IsActive: true},
				AssistantMessage: &conversation.Message{PublicID: "msg_a", Role: conversation.RoleAssistant, Content: "hi!", Sequence: 2, IsActive: true},
			}, nil
		},
	}
	router := newTestRouter(service)

	body, _ := json.Marshal(map[string]string{"text": "hello", "provider": "prov_x"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/turns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Conversation struct {
			ID          string `json:"id"`
			TotalTokens int    `json:"total_tokens"`
		} `json:"conversation"`
		AssistantMessage struct {
			Content string `json:"content"`
			IsError bool   `json:"is_error"`
		} `json:"assistant_message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Conversation.ID != "conv_a3f8d2k9p1m4n7q2" || payload.Conversation.TotalTokens != 30 {
		t.Errorf("conversation payload = %+v", payload.Conversation)
	}
	if payload.AssistantMessage.Content != "hi!" || payload.AssistantMessage.IsError {
		t.Errorf("assistant payload = %+v", payload.AssistantMessage)
	}
}

func TestChatHandler_SubmitTurn_MissingFields(t *testing.T) {
	router := newTestRouter(&MockChatService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/turns", bytes.NewReader([]byte(`{"text":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatHandler_ErrorTypeMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "validation maps to 400",
			serviceErr: platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "unknown provider", nil, ""),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "conflict maps to 409",
			serviceErr: platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "a turn is already in progress for this conversation", nil, ""),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "not found maps to 404",
			serviceErr: platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, ""),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "external maps to 502",
			serviceErr: platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "inference request failed", nil, ""),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockChatService{
				SubmitTurnFunc: func(ctx context.Context, input conversation.SubmitTurnInput) (*conversation.TurnResult, error) {
					return nil, tt.serviceErr
				},
			}
			router := newTestRouter(service)

			body, _ := json.Marshal(map[string]string{"text": "hello", "provider": "prov_x"})
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/turns", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestVariantHandler_SelectConflict(t *testing.T) {
	service := &MockChatService{
		SelectVariantFunc: func(ctx context.Context, input conversation.SelectVariantInput) (*conversation.SelectionResult, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "message has already been branched", nil, "")
		},
	}
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/msg_x7y2z5w8r3t6u9v1/variants/var_p1m4n7q2a3f8d2k9/select", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestVariantHandler_Rerun(t *testing.T) {
	service := &MockChatService{
		RerunFunc: func(ctx context.Context, input conversation.RerunInput) (*conversation.Variant, error) {
			if input.OriginalMessageID != "msg_x7y2z5w8r3t6u9v1" {
				t.Errorf("message ID = %q", input.OriginalMessageID)
			}
			return &conversation.Variant{
				PublicID:          "var_p1m4n7q2a3f8d2k9",
				OriginalMessageID: input.OriginalMessageID,
				ProviderID:        input.ProviderID,
				Model:             "model-x-1",
				Content:           "another take",
			}, nil
		},
	}
	router := newTestRouter(service)

	body, _ := json.Marshal(map[string]string{"provider": "prov_x"})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/msg_x7y2z5w8r3t6u9v1/variants", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != "var_p1m4n7q2a3f8d2k9" || payload.Content != "another take" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestProviderHandler_List(t *testing.T) {
	router := newTestRouter(&MockChatService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload struct {
		Data []struct {
			ID           string `json:"id"`
			DefaultModel string `json:"default_model"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].ID != "prov_x" || payload.Data[0].DefaultModel != "model-x-1" {
		t.Errorf("payload = %+v", payload.Data)
	}
}
