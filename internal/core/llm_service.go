package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/codementor-ai/codementor-backend/internal/llm"
	"github.com/codementor-ai/codementor-backend/internal/metrics"
	"github.com/codementor-ai/codementor-backend/internal/store"
)

const (
	kindChat = "chat"
	kindCode = "code_analysis"
)

// LLMService is the only component that talks to the inference provider. It never
// returns an error: failed calls and unusable replies become fallback replies.
type LLMService struct {
	provider llm.Provider
	timeout  time.Duration
	log      zerolog.Logger
}

// NewLLMService wraps provider, which may be nil when no credential is configured.
func NewLLMService(provider llm.Provider, timeout time.Duration, log zerolog.Logger) *LLMService {
	return &LLMService{
		provider: provider,
		timeout:  timeout,
		log:      log,
	}
}

func (s *LLMService) Configured() bool {
	return s.provider != nil
}

func (s *LLMService) providerName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

func (s *LLMService) Close() {
	if s.provider == nil {
		return
	}
	if err := s.provider.Close(); err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("close inference provider")
	}
}

// complete runs one bounded provider call. ok is false when the call was not made or failed.
func (s *LLMService) complete(ctx context.Context, kind, systemInstruction, userContent string) (raw string, ok bool) {
	if s.provider == nil {
		metrics.RecordInference(s.providerName(), kind, metrics.OutcomeUnconfigured, 0)
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.provider.Complete(callCtx, systemInstruction, userContent)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.log.Warn().Err(err).
			Str("provider", s.provider.Name()).
			Str("kind", kind).
			Float64("duration_sec", elapsed).
			Msg("inference call failed, using fallback reply")
		metrics.RecordInference(s.providerName(), kind, metrics.OutcomeCallFailed, elapsed)
		return "", false
	}
	s.log.Debug().Str("provider", s.provider.Name()).Str("kind", kind).Float64("duration_sec", elapsed).Msg("inference call completed")
	return raw, true
}

// GenerateChatResponse answers message in the language it was written in.
func (s *LLMService) GenerateChatResponse(ctx context.Context, message string) ChatReply {
	start := time.Now()
	raw, ok := s.complete(ctx, kindChat, chatSystemInstruction, message)
	if !ok {
		if !s.Configured() {
			return ChatReply{Response: ChatUnconfiguredResponse, DetectedLanguage: "en"}
		}
		return ChatReply{Response: ChatFailureResponse, DetectedLanguage: "en"}
	}

	reply, parsed := DecodeChatReply(raw)
	outcome := metrics.OutcomeOK
	if !parsed {
		outcome = metrics.OutcomeParseFailed
		s.log.Warn().Str("kind", kindChat).Int("raw_len", len(raw)).Msg("model reply was not the expected JSON, using fallback fields")
	}
	metrics.RecordInference(s.providerName(), kindChat, outcome, time.Since(start).Seconds())
	return reply
}

// AnalyzeCode reviews code written in language.
func (s *LLMService) AnalyzeCode(ctx context.Context, code, language string) AnalysisReply {
	start := time.Now()
	raw, ok := s.complete(ctx, kindCode, codeAnalysisSystemInstruction, codeAnalysisUserContent(code, language))
	if !ok {
		summary := AnalysisFailureSummary
		if !s.Configured() {
			summary = AnalysisUnconfiguredSummary
		}
		return AnalysisReply{Summary: summary, Errors: []store.ErrorItem{}, FixedCode: code}
	}

	reply, parsed := DecodeAnalysisReply(raw, code)
	outcome := metrics.OutcomeOK
	if !parsed {
		outcome = metrics.OutcomeParseFailed
		s.log.Warn().Str("kind", kindCode).Int("raw_len", len(raw)).Msg("model reply was not the expected JSON, using fallback fields")
	}
	metrics.RecordInference(s.providerName(), kindCode, outcome, time.Since(start).Seconds())
	return reply
}
