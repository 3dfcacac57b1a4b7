package extraction

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/epeers/ownership/internal/models"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

//go:embed prompt.txt
var systemPrompt string

var (
	ErrDecode     = errors.New("extraction output is not valid JSON")
	ErrValidation = errors.New("extraction output failed validation")
	ErrNoAPIKey   = errors.New("extraction model API key not configured")
	ErrRateLimit  = errors.New("extraction model rate limit exceeded")
)

// ExtractionError reports an extraction that never produced a valid record
type ExtractionError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction with %s failed after %d attempt(s): %v", e.Model, e.Attempts, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Oracle turns filing text into a validated Schedule 13G record.
// maxRetries is the number of additional attempts after the first.
type Oracle interface {
	ExtractAndValidate(ctx context.Context, text string, schema Schema, maxRetries int) (*models.Schedule13GEntry, error)
}

// Model is a text generation backend
type Model interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// Extractor implements Oracle on top of a Model
type Extractor struct {
	model Model
}

// NewExtractor creates an Extractor backed by model
func NewExtractor(model Model) *Extractor {
	return &Extractor{model: model}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("reportdate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006/01/02", fl.Field().String())
		return err == nil
	})
	return v
}

// ExtractAndValidate asks the model for a record, retrying with the previous
// failure as feedback when the output does not decode or validate
func (e *Extractor) ExtractAndValidate(ctx context.Context, text string, schema Schema, maxRetries int) (*models.Schedule13GEntry, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	system := systemPrompt + "\n" + schema.Describe()

	var lastErr error
	attempts := 0
	for attempts <= maxRetries {
		attempts++
		user := text
		if lastErr != nil {
			user = fmt.Sprintf("%s\n\nYour previous response was rejected: %v\nRespond again with a corrected JSON object.", text, lastErr)
		}

		out, err := e.model.Generate(ctx, system, user)
		if err != nil {
			return nil, &ExtractionError{Model: e.model.Name(), Attempts: attempts, Err: err}
		}

		entry, err := parseEntry(out, schema)
		if err == nil {
			return entry, nil
		}
		log.Debugf("extraction: attempt %d with %s rejected: %v", attempts, e.model.Name(), err)
		lastErr = err
	}
	return nil, &ExtractionError{Model: e.model.Name(), Attempts: attempts, Err: lastErr}
}

// parseEntry decodes, coerces and validates one model response
func parseEntry(out string, schema Schema) (*models.Schedule13GEntry, error) {
	body := stripFences(out)

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := coerce(raw, schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var entry models.Schedule13GEntry
	if err := json.NewDecoder(bytes.NewReader(normalized)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validate.Struct(entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &entry, nil
}

// stripFences removes markdown code fences and any text around the outermost
// JSON object
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
