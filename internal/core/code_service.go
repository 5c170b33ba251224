package core

import (
	"context"
	"fmt"

	"github.com/codementor-ai/codementor-backend/internal/metrics"
	"github.com/codementor-ai/codementor-backend/internal/store"
)

type CodeService struct {
	dbStore    store.Store
	llmService *LLMService
	validator  *RequestValidator
}

func NewCodeService(db store.Store, llm *LLMService, v *RequestValidator) *CodeService {
	return &CodeService{
		dbStore:    db,
		llmService: llm,
		validator:  v,
	}
}

// Analyze reviews the submitted code and stores the result. Code is kept byte for byte.
func (s *CodeService) Analyze(ctx context.Context, req AnalyzeCodeRequest) (*store.CodeAnalysis, error) {
	if err := s.validator.ValidateAnalysis(req); err != nil {
		return nil, err
	}

	reply := s.llmService.AnalyzeCode(ctx, req.Code, req.Language)

	analysis := &store.CodeAnalysis{
		Code:      req.Code,
		Language:  req.Language,
		Summary:   reply.Summary,
		Errors:    reply.Errors,
		FixedCode: reply.FixedCode,
		FileName:  req.FileName,
	}
	err := s.dbStore.CreateCodeAnalysis(ctx, analysis)
	metrics.RecordStoreOperation("create_code_analysis", err)
	if err != nil {
		return nil, fmt.Errorf("failed to store code analysis: %w", err)
	}
	return analysis, nil
}

// History lists the newest analyses first, without code bodies.
func (s *CodeService) History(ctx context.Context, limit int) ([]store.CodeAnalysisSummary, error) {
	analyses, err := s.dbStore.ListCodeAnalyses(ctx, clampLimit(limit, DefaultCodeHistoryLimit))
	metrics.RecordStoreOperation("list_code_analyses", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list code analyses: %w", err)
	}
	return analyses, nil
}

// GetAnalysis returns nil, nil when id does not resolve.
func (s *CodeService) GetAnalysis(ctx context.Context, id string) (*store.CodeAnalysis, error) {
	analysis, err := s.dbStore.GetCodeAnalysis(ctx, id)
	metrics.RecordStoreOperation("get_code_analysis", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get code analysis: %w", err)
	}
	return analysis, nil
}
