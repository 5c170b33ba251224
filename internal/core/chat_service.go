package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codementor-ai/codementor-backend/internal/metrics"
	"github.com/codementor-ai/codementor-backend/internal/store"
)

const (
	DefaultChatHistoryLimit = 50
	DefaultCodeHistoryLimit = 10
	MaxHistoryLimit         = 500
)

type ChatService struct {
	dbStore    store.Store
	llmService *LLMService
	validator  *RequestValidator
}

func NewChatService(db store.Store, llm *LLMService, v *RequestValidator) *ChatService {
	return &ChatService{
		dbStore:    db,
		llmService: llm,
		validator:  v,
	}
}

// SendMessage validates the submission, asks the model for an answer and stores the pair.
// Only validation and store failures are returned; inference problems yield a fallback answer.
func (s *ChatService) SendMessage(ctx context.Context, req ChatMessageRequest) (*store.ChatMessage, error) {
	if err := s.validator.ValidateChat(req); err != nil {
		return nil, err
	}

	reply := s.llmService.GenerateChatResponse(ctx, req.Message)

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	msg := &store.ChatMessage{
		Message:          req.Message,
		Response:         reply.Response,
		DetectedLanguage: reply.DetectedLanguage,
		ConversationID:   conversationID,
	}
	err := s.dbStore.CreateChatMessage(ctx, msg)
	metrics.RecordStoreOperation("create_chat_message", err)
	if err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}
	return msg, nil
}

// History returns up to limit of the most recent messages, oldest first.
// An empty conversationID spans all conversations.
func (s *ChatService) History(ctx context.Context, conversationID string, limit int) ([]store.ChatMessage, error) {
	messages, err := s.dbStore.ListChatMessages(ctx, store.ChatHistoryQuery{
		ConversationID: strings.TrimSpace(conversationID),
		Limit:          clampLimit(limit, DefaultChatHistoryLimit),
	})
	metrics.RecordStoreOperation("list_chat_messages", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
