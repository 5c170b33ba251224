package store

import "time"

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"

	DefaultDetectedLanguage = "en"
)

// Severities is the enumeration accepted for ErrorItem.Severity.
var Severities = []string{SeverityError, SeverityWarning, SeverityInfo}

type ChatMessage struct {
	ID               string    `json:"id"`
	Message          string    `json:"message"`
	Response         string    `json:"response"`
	DetectedLanguage string    `json:"detectedLanguage"`
	ConversationID   string    `json:"conversationId"`
	UserID           *string   `json:"userId,omitempty"` // Reserved, no code path sets it
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ErrorItem is one issue reported by a code analysis. It has no identity of its own.
type ErrorItem struct {
	Line        *int   `json:"line"`
	Issue       string `json:"issue"`
	Explanation string `json:"explanation"`
	Severity    string `json:"severity"`
}

type CodeAnalysis struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	Language  string      `json:"language"`
	Summary   string      `json:"summary"`
	Errors    []ErrorItem `json:"errors"`
	FixedCode string      `json:"fixed_code"`
	FileName  string      `json:"fileName"`
	UserID    *string     `json:"userId,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CodeAnalysisSummary is a CodeAnalysis without the code and fixed_code bodies,
// used for history listings.
type CodeAnalysisSummary struct {
	ID        string      `json:"id"`
	Language  string      `json:"language"`
	Summary   string      `json:"summary"`
	Errors    []ErrorItem `json:"errors"`
	FileName  string      `json:"fileName"`
	UserID    *string     `json:"userId,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type ChatHistoryQuery struct {
	ConversationID string // Empty means all conversations
	Limit          int
}
