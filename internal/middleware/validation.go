package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "assesspulse/internal/errors"
	"assesspulse/pkg/contracts/domain"
)

// DefaultMaxBodySize caps JSON request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// PageQuery is the validated form of ?page=&per_page=.
type PageQuery struct {
	Page    int `json:"page" validate:"gte=1"`
	PerPage int `json:"per_page" validate:"gte=1,lte=100"`
}

// LimitQuery is the validated form of ?limit=.
type LimitQuery struct {
	Limit int `json:"limit" validate:"gte=1,lte=1000"`
}

// BatchParam is the validated {batch} path segment.
type BatchParam struct {
	Batch string `json:"batch" validate:"required,batch"`
}

// ValidationMiddleware validates request bodies and query parameters
// against struct tags.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("batch", isBatchLabel)
	_ = v.RegisterValidation("printable", isPrintable)

	// Report json tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  DefaultMaxBodySize,
	}
}

// ValidateRequest rejects oversized or malformed JSON bodies before they
// reach a handler.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apperrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]interface{}{"max_size": m.maxBodySize, "size": r.ContentLength},
			))
			return
		}

		if r.Body != nil {
			body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize+1))
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to read request body",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				m.errorHandler.HandleError(w, r, apperrors.ErrInvalidRequest)
				return
			}
			if int64(len(body)) > m.maxBodySize {
				m.errorHandler.HandleError(w, r, apperrors.New(http.StatusRequestEntityTooLarge,
					"PAYLOAD_TOO_LARGE", "Request body exceeds maximum allowed size"))
				return
			}
			if len(body) > 0 && !json.Valid(body) {
				m.errorHandler.HandleError(w, r, apperrors.New(http.StatusBadRequest,
					"INVALID_JSON", "Request body contains invalid JSON"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateStruct validates v and converts failures to a VALIDATION_FAILED error.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.ErrValidation("", err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

// ParsePageQuery reads page and per_page, applying defaults for absent values.
func (m *ValidationMiddleware) ParsePageQuery(r *http.Request, defaultPerPage int) (PageQuery, error) {
	q := PageQuery{Page: 1, PerPage: defaultPerPage}

	var err error
	if q.Page, err = intParam(r, "page", q.Page); err != nil {
		return PageQuery{}, err
	}
	if q.PerPage, err = intParam(r, "per_page", q.PerPage); err != nil {
		return PageQuery{}, err
	}
	if err := m.ValidateStruct(q); err != nil {
		return PageQuery{}, err
	}
	return q, nil
}

// ParseLimitQuery reads limit, defaulting to def.
func (m *ValidationMiddleware) ParseLimitQuery(r *http.Request, def int) (LimitQuery, error) {
	limit, err := intParam(r, "limit", def)
	if err != nil {
		return LimitQuery{}, err
	}
	q := LimitQuery{Limit: limit}
	if err := m.ValidateStruct(q); err != nil {
		return LimitQuery{}, err
	}
	return q, nil
}

// ParseBatch normalises and validates a batch label.
func (m *ValidationMiddleware) ParseBatch(raw string) (string, error) {
	p := BatchParam{Batch: strings.ToUpper(strings.TrimSpace(raw))}
	if err := m.ValidateStruct(p); err != nil {
		return "", err
	}
	return p.Batch, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ErrValidation(name, fmt.Sprintf("%s must be a valid integer", name))
	}
	return v, nil
}

// ContentTypeValidator ensures requests with a body declare an allowed type.
func ContentTypeValidator(errorHandler *apperrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				errorHandler.HandleError(w, r, apperrors.New(http.StatusBadRequest,
					"MISSING_CONTENT_TYPE", "Content-Type header is required"))
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, apperrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{"content_type": contentType, "allowed": contentTypes},
			))
		})
	}
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "batch":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(domain.BatchLabels(), ", "))
	case "printable":
		return fmt.Sprintf("%s must not contain control characters", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isBatchLabel(fl validator.FieldLevel) bool {
	label := fl.Field().String()
	for _, b := range domain.BatchLabels() {
		if label == b {
			return true
		}
	}
	return false
}

func isPrintable(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}
