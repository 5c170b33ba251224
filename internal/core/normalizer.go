package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/codementor-ai/codementor-backend/internal/store"
)

// ChatReply is the normalized model answer to a chat message.
type ChatReply struct {
	Response         string
	DetectedLanguage string
}

// AnalysisReply is the normalized model answer to a code analysis request.
type AnalysisReply struct {
	Summary   string
	Errors    []store.ErrorItem
	FixedCode string
}

// DecodeChatReply turns raw model output into a ChatReply. The boolean is false when
// the output was not a JSON object with a usable response, in which case the
// returned reply is the parse-failure fallback.
func DecodeChatReply(raw string) (ChatReply, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return ChatReply{Response: ChatParseFailureResponse, DetectedLanguage: store.DefaultDetectedLanguage}, false
	}

	reply := ChatReply{
		Response:         stringField(obj, "response"),
		DetectedLanguage: stringField(obj, "detectedLanguage"),
	}
	if reply.DetectedLanguage == "" {
		reply.DetectedLanguage = store.DefaultDetectedLanguage
	}
	if reply.Response == "" {
		reply.Response = ChatParseFailureResponse
		return reply, false
	}
	return reply, true
}

// DecodeAnalysisReply turns raw model output into an AnalysisReply for code.
// Unusable output yields the parse-failure fallback, which echoes code back
// with no errors, and false.
func DecodeAnalysisReply(raw, code string) (AnalysisReply, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return AnalysisReply{Summary: AnalysisParseFailureSummary, Errors: []store.ErrorItem{}, FixedCode: code}, false
	}

	reply := AnalysisReply{
		Summary:   stringField(obj, "summary"),
		Errors:    decodeErrorItems(obj["errors"]),
		FixedCode: code,
	}
	if reply.Summary == "" {
		reply.Summary = AnalysisDefaultSummary
	}
	// An empty string is a legitimate fixed_code; only non-strings fall back.
	if fixed, isString := obj["fixed_code"].(string); isString {
		reply.FixedCode = fixed
	}
	return reply, true
}

func decodeObject(raw string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// decodeErrorItems keeps only items with an issue and an explanation. Severity is
// coerced into the enumeration (default error) and unusable line numbers become null.
func decodeErrorItems(v any) []store.ErrorItem {
	items := []store.ErrorItem{}
	list, ok := v.([]any)
	if !ok {
		return items
	}

	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := store.ErrorItem{
			Line:        lineNumber(obj["line"]),
			Issue:       stringField(obj, "issue"),
			Explanation: stringField(obj, "explanation"),
			Severity:    strings.ToLower(stringField(obj, "severity")),
		}
		if item.Issue == "" || item.Explanation == "" {
			continue
		}
		if !store.IsSeverity(item.Severity) {
			item.Severity = store.SeverityError
		}
		items = append(items, item)
	}
	return items
}

func lineNumber(v any) *int {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		n = float64(parsed)
	default:
		return nil
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return nil
	}
	line := int(n)
	return &line
}
