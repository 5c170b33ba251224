package core

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a malformed or incomplete submission. Its Message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type ChatMessageRequest struct {
	Message        string `json:"message" validate:"notblank"`
	ConversationID string `json:"conversationId"`
}

type AnalyzeCodeRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required,supported_language"`
	FileName string `json:"fileName"`
}

// RequestValidator checks submissions before any inference call or store write.
type RequestValidator struct {
	validate  *validator.Validate
	languages []string
}

// NewRequestValidator accepts analysis requests only for the given languages.
func NewRequestValidator(languages []string) *RequestValidator {
	v := &RequestValidator{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		languages: append([]string(nil), languages...),
	}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.validate.RegisterValidation("supported_language", func(fl validator.FieldLevel) bool {
		return v.supports(fl.Field().String())
	})
	return v
}

func (v *RequestValidator) supports(lang string) bool {
	for _, l := range v.languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Languages returns the accepted analysis languages.
func (v *RequestValidator) Languages() []string {
	return append([]string(nil), v.languages...)
}

func (v *RequestValidator) ValidateChat(req ChatMessageRequest) error {
	fe := firstFieldError(v.validate.Struct(req))
	if fe == nil {
		return nil
	}
	if fe.Field() == "message" {
		return &ValidationError{Message: "Message is required"}
	}
	return &ValidationError{Message: fe.Error()}
}

func (v *RequestValidator) ValidateAnalysis(req AnalyzeCodeRequest) error {
	fe := firstFieldError(v.validate.Struct(req))
	if fe == nil {
		return nil
	}
	switch {
	case fe.Tag() == "required":
		return &ValidationError{Message: "Code and language are required"}
	case fe.Tag() == "supported_language":
		return &ValidationError{Message: "Invalid language. Supported: " + strings.Join(v.languages, ", ")}
	}
	return &ValidationError{Message: fe.Error()}
}

func firstFieldError(err error) validator.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0]
	}
	return nil
}
