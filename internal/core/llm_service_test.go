package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codementor-ai/codementor-backend/internal/llm/llmtest"
)

func TestGenerateChatResponseUnconfigured(t *testing.T) {
	s := NewLLMService(nil, time.Second, zerolog.Nop())

	reply := s.GenerateChatResponse(context.Background(), "hello")
	assert.Equal(t, ChatUnconfiguredResponse, reply.Response)
	assert.Equal(t, "en", reply.DetectedLanguage)
	assert.False(t, s.Configured())
}

func TestNewLLMServiceUnconfiguredIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	s := NewLLMService(nil, time.Second, zerolog.New(&buf))

	assert.False(t, s.Configured())
	assert.Empty(t, buf.String())
}

func TestGenerateChatResponseProviderError(t *testing.T) {
	fake := &llmtest.Provider{Err: errors.New("insufficient_quota")}
	s := NewLLMService(fake, time.Second, zerolog.Nop())

	reply := s.GenerateChatResponse(context.Background(), "hello")
	assert.Equal(t, ChatFailureResponse, reply.Response)
	assert.Equal(t, "en", reply.DetectedLanguage)
}

func TestGenerateChatResponseSendsInstructionAndMessage(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{"response":"Bonjour","detectedLanguage":"fr"}`}
	s := NewLLMService(fake, time.Second, zerolog.Nop())

	reply := s.GenerateChatResponse(context.Background(), "Salut, comment ça va ?")
	assert.Equal(t, ChatReply{Response: "Bonjour", DetectedLanguage: "fr"}, reply)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, chatSystemInstruction, calls[0].SystemInstruction)
	assert.Equal(t, "Salut, comment ça va ?", calls[0].UserContent)
}

func TestInferenceCallIsBounded(t *testing.T) {
	fake := &llmtest.Provider{Block: true}
	s := NewLLMService(fake, 20*time.Millisecond, zerolog.Nop())

	done := make(chan AnalysisReply, 1)
	go func() { done <- s.AnalyzeCode(context.Background(), "int x;", "c") }()

	select {
	case reply := <-done:
		assert.Equal(t, AnalysisFailureSummary, reply.Summary)
		assert.Equal(t, "int x;", reply.FixedCode)
		assert.Empty(t, reply.Errors)
	case <-time.After(2 * time.Second):
		t.Fatal("inference call was not bounded by the timeout")
	}
}

func TestAnalyzeCodeUnconfiguredEchoesCode(t *testing.T) {
	s := NewLLMService(nil, time.Second, zerolog.Nop())

	reply := s.AnalyzeCode(context.Background(), "print(1)", "python")
	assert.Equal(t, AnalysisUnconfiguredSummary, reply.Summary)
	assert.Equal(t, "print(1)", reply.FixedCode)
	require.NotNil(t, reply.Errors)
	assert.Empty(t, reply.Errors)
}

func TestAnalyzeCodeUserContent(t *testing.T) {
	fake := &llmtest.Provider{Reply: `{"summary":"Fine","errors":[],"fixed_code":"print(1)"}`}
	s := NewLLMService(fake, time.Second, zerolog.Nop())

	reply := s.AnalyzeCode(context.Background(), "print(1)", "python")
	assert.Equal(t, "Fine", reply.Summary)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, codeAnalysisSystemInstruction, calls[0].SystemInstruction)
	assert.Equal(t, "Language: python\nCode:\n```python\nprint(1)\n```\n", calls[0].UserContent)
}
