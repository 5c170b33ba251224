package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codementor-ai/codementor-backend/internal/config"
)

// ErrSchemaViolation is returned by writes whose fields fail the collection schema.
var ErrSchemaViolation = errors.New("schema violation")

// Store is the append-only persistence boundary for chat messages and code analyses.
// Lookups that find nothing return a nil record and a nil error.
type Store interface {
	CreateChatMessage(ctx context.Context, msg *ChatMessage) error
	ListChatMessages(ctx context.Context, q ChatHistoryQuery) ([]ChatMessage, error)

	CreateCodeAnalysis(ctx context.Context, analysis *CodeAnalysis) error
	ListCodeAnalyses(ctx context.Context, limit int) ([]CodeAnalysisSummary, error)
	GetCodeAnalysis(ctx context.Context, id string) (*CodeAnalysis, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.DatabaseURL.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.UsesMongo() {
		return NewMongoStore(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	}
	return NewSQLiteStore(cfg.DatabaseURL)
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// prepareChatMessage applies field defaults and trimming, then checks required fields.
func prepareChatMessage(msg *ChatMessage) error {
	msg.Message = strings.TrimSpace(msg.Message)
	msg.Response = strings.TrimSpace(msg.Response)
	msg.DetectedLanguage = strings.TrimSpace(msg.DetectedLanguage)
	msg.ConversationID = strings.TrimSpace(msg.ConversationID)
	if msg.DetectedLanguage == "" {
		msg.DetectedLanguage = DefaultDetectedLanguage
	}

	switch {
	case msg.Message == "":
		return schemaError("message is required")
	case msg.Response == "":
		return schemaError("response is required")
	case msg.ConversationID == "":
		return schemaError("conversationId is required")
	}
	return nil
}

// prepareCodeAnalysis applies field defaults and enforces the language and severity enumerations.
// Code and fixed_code are stored exactly as given.
func prepareCodeAnalysis(a *CodeAnalysis) error {
	a.Summary = strings.TrimSpace(a.Summary)
	a.FileName = strings.TrimSpace(a.FileName)
	if a.Errors == nil {
		a.Errors = []ErrorItem{}
	}

	if a.Code == "" {
		return schemaError("code is required")
	}
	if a.Language == "" {
		return schemaError("language is required")
	}
	if !config.IsCanonicalLanguage(a.Language) {
		return schemaError("`%s` is not a valid enum value for path `language`", a.Language)
	}

	for i := range a.Errors {
		item := &a.Errors[i]
		item.Issue = strings.TrimSpace(item.Issue)
		item.Explanation = strings.TrimSpace(item.Explanation)
		if item.Severity == "" {
			item.Severity = SeverityError
		}
		switch {
		case item.Issue == "":
			return schemaError("errors.%d.issue is required", i)
		case item.Explanation == "":
			return schemaError("errors.%d.explanation is required", i)
		case !IsSeverity(item.Severity):
			return schemaError("`%s` is not a valid enum value for path `errors.%d.severity`", item.Severity, i)
		case item.Line != nil && *item.Line < 0:
			return schemaError("errors.%d.line must not be negative", i)
		}
	}
	return nil
}

func IsSeverity(s string) bool {
	for _, v := range Severities {
		if v == s {
			return true
		}
	}
	return false
}
