package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/codementor-ai/codementor-backend/internal/config"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	languages := make([]string, len(config.CanonicalLanguages))
	for i, l := range config.CanonicalLanguages {
		languages[i] = "'" + l + "'"
	}

	schema := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS chat_messages (
        id TEXT PRIMARY KEY, -- UUID
        message TEXT NOT NULL CHECK (length(message) > 0),
        response TEXT NOT NULL CHECK (length(response) > 0),
        detected_language TEXT NOT NULL DEFAULT 'en',
        conversation_id TEXT NOT NULL CHECK (length(conversation_id) > 0),
        user_id TEXT,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation ON chat_messages (conversation_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages (created_at);

    CREATE TABLE IF NOT EXISTS code_analyses (
        id TEXT PRIMARY KEY, -- UUID
        code TEXT NOT NULL CHECK (length(code) > 0),
        language TEXT NOT NULL CHECK (language IN (%s)),
        summary TEXT NOT NULL DEFAULT '',
        errors_json TEXT NOT NULL DEFAULT '[]', -- JSON array of ErrorItem
        fixed_code TEXT NOT NULL DEFAULT '',
        file_name TEXT NOT NULL DEFAULT '',
        user_id TEXT,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_code_analyses_created_at ON code_analyses (created_at DESC);
    `, strings.Join(languages, ", "))

	_, err := s.db.Exec(schema)
	return err
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Chat message methods
func (s *SQLiteStore) CreateChatMessage(ctx context.Context, msg *ChatMessage) error {
	if err := prepareChatMessage(msg); err != nil {
		return err
	}

	id := uuid.NewString()
	ts := now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (id, message, response, detected_language, conversation_id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, msg.Message, msg.Response, msg.DetectedLanguage, msg.ConversationID, msg.UserID, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = ts
	msg.UpdatedAt = ts
	return nil
}

// ListChatMessages returns the newest q.Limit messages, oldest first.
func (s *SQLiteStore) ListChatMessages(ctx context.Context, q ChatHistoryQuery) ([]ChatMessage, error) {
	query := "SELECT id, message, response, detected_language, conversation_id, user_id, created_at, updated_at FROM chat_messages"
	var args []any
	if q.ConversationID != "" {
		query += " WHERE conversation_id = ?"
		args = append(args, q.ConversationID)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []ChatMessage{}
	for rows.Next() {
		var msg ChatMessage
		var userID sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Message, &msg.Response, &msg.DetectedLanguage, &msg.ConversationID, &userID, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		if userID.Valid {
			msg.UserID = &userID.String
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	reverse(messages)
	return messages, nil
}

// Code analysis methods
func (s *SQLiteStore) CreateCodeAnalysis(ctx context.Context, a *CodeAnalysis) error {
	if err := prepareCodeAnalysis(a); err != nil {
		return err
	}

	errorsJSON, err := json.Marshal(a.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis errors: %w", err)
	}

	id := uuid.NewString()
	ts := now()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO code_analyses (id, code, language, summary, errors_json, fixed_code, file_name, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, a.Code, a.Language, a.Summary, string(errorsJSON), a.FixedCode, a.FileName, a.UserID, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to insert code analysis: %w", err)
	}

	a.ID = id
	a.CreatedAt = ts
	a.UpdatedAt = ts
	return nil
}

// ListCodeAnalyses returns the newest analyses first, without code bodies.
func (s *SQLiteStore) ListCodeAnalyses(ctx context.Context, limit int) ([]CodeAnalysisSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, language, summary, errors_json, file_name, user_id, created_at, updated_at FROM code_analyses ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query code analyses: %w", err)
	}
	defer rows.Close()

	analyses := []CodeAnalysisSummary{}
	for rows.Next() {
		var a CodeAnalysisSummary
		var errorsJSON string
		var userID sql.NullString
		if err := rows.Scan(&a.ID, &a.Language, &a.Summary, &errorsJSON, &a.FileName, &userID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan code analysis row: %w", err)
		}
		if a.Errors, err = decodeErrorItems(errorsJSON); err != nil {
			return nil, fmt.Errorf("code analysis %s: %w", a.ID, err)
		}
		if userID.Valid {
			a.UserID = &userID.String
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate code analyses: %w", err)
	}
	return analyses, nil
}

func (s *SQLiteStore) GetCodeAnalysis(ctx context.Context, id string) (*CodeAnalysis, error) {
	var a CodeAnalysis
	var errorsJSON string
	var userID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, language, summary, errors_json, fixed_code, file_name, user_id, created_at, updated_at FROM code_analyses WHERE id = ?",
		id).Scan(&a.ID, &a.Code, &a.Language, &a.Summary, &errorsJSON, &a.FixedCode, &a.FileName, &userID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get code analysis: %w", err)
	}
	if a.Errors, err = decodeErrorItems(errorsJSON); err != nil {
		return nil, fmt.Errorf("code analysis %s: %w", a.ID, err)
	}
	if userID.Valid {
		a.UserID = &userID.String
	}
	return &a, nil
}

func decodeErrorItems(raw string) ([]ErrorItem, error) {
	items := []ErrorItem{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal errors_json: %w", err)
	}
	return items, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
