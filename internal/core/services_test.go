package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codementor-ai/codementor-backend/internal/config"
	"github.com/codementor-ai/codementor-backend/internal/llm"
	"github.com/codementor-ai/codementor-backend/internal/llm/llmtest"
	"github.com/codementor-ai/codementor-backend/internal/store"
)

func newServices(t *testing.T, provider llm.Provider) (*ChatService, *CodeService, store.Store) {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "core.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	llmService := NewLLMService(provider, time.Second, zerolog.Nop())
	v := NewRequestValidator(config.CanonicalLanguages)
	return NewChatService(db, llmService, v), NewCodeService(db, llmService, v), db
}

func TestSendMessageBlankIsRejectedWithoutWrite(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{"response":"x"}`}
	chat, _, db := newServices(t, fake)
	ctx := context.Background()

	_, err := chat.SendMessage(ctx, ChatMessageRequest{Message: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, fake.Calls())
	all, err := db.ListChatMessages(ctx, store.ChatHistoryQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSendMessagePersistsReply(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{"response":"Use a for loop.","detectedLanguage":"en"}`}
	chat, _, _ := newServices(t, fake)
	ctx := context.Background()

	msg, err := chat.SendMessage(ctx, ChatMessageRequest{Message: "  How do I iterate?  ", ConversationID: "conv-9"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "How do I iterate?", msg.Message)
	assert.Equal(t, "Use a for loop.", msg.Response)
	assert.Equal(t, "conv-9", msg.ConversationID)

	history, err := chat.History(ctx, "conv-9", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestSendMessageAssignsConversationID(t *testing.T) {
	chat, _, _ := newServices(t, nil)

	msg, err := chat.SendMessage(context.Background(), ChatMessageRequest{Message: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ConversationID)
	assert.Equal(t, ChatUnconfiguredResponse, msg.Response)
	assert.Equal(t, "en", msg.DetectedLanguage)
}

func TestChatHistoryLimitWindow(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{"response":"ok"}`}
	chat, _, _ := newServices(t, fake)
	ctx := context.Background()

	for _, m := range []string{"one", "two", "three", "four", "five"} {
		_, err := chat.SendMessage(ctx, ChatMessageRequest{Message: m, ConversationID: "c"})
		require.NoError(t, err)
	}

	got, err := chat.History(ctx, "c", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "four", got[0].Message)
	assert.Equal(t, "five", got[1].Message)
}

func TestAnalyzeRoundTrip(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{
		"summary": "Missing colon.",
		"errors": [{"line": 1, "issue": "SyntaxError", "explanation": "def needs a colon", "severity": "error"}],
		"fixed_code": "def f():\n    pass\n"
	}`}
	_, code, _ := newServices(t, fake)
	ctx := context.Background()

	created, err := code.Analyze(ctx, AnalyzeCodeRequest{Code: "def f()\n    pass\n", Language: "python", FileName: "f.py"})
	require.NoError(t, err)

	got, err := code.GetAnalysis(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.Code, got.Code)
	assert.Equal(t, created.Language, got.Language)
	assert.Equal(t, created.Summary, got.Summary)
	assert.Equal(t, created.Errors, got.Errors)
	assert.Equal(t, created.FixedCode, got.FixedCode)
}

func TestAnalyzeInvalidLanguageRejectedWithoutWrite(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{}`}
	_, code, _ := newServices(t, fake)
	ctx := context.Background()

	_, err := code.Analyze(ctx, AnalyzeCodeRequest{Code: "x", Language: "go"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, fake.Calls())

	list, err := code.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalyzeProviderFailureStillPersists(t *testing.T) {
	fake := &llmtest.Provider{Err: errors.New("connection refused")}
	_, code, _ := newServices(t, fake)

	created, err := code.Analyze(context.Background(), AnalyzeCodeRequest{Code: "int main(){}", Language: "cpp"})
	require.NoError(t, err)
	assert.Equal(t, "int main(){}", created.FixedCode)
	assert.Empty(t, created.Errors)
	assert.NotEmpty(t, created.ID)
}

func TestGetAnalysisUnknownID(t *testing.T) {
	_, code, _ := newServices(t, nil)
	got, err := code.GetAnalysis(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0, 50))
	assert.Equal(t, 10, clampLimit(-3, 10))
	assert.Equal(t, 7, clampLimit(7, 10))
	assert.Equal(t, MaxHistoryLimit, clampLimit(10_000, 10))
}
