package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultDatabaseURL      = "chat_app.db"
	DefaultDatabaseProvider = "sqlite"
)

var (
	ErrConfigCorrupt    = errors.New("config corrupt")
	ErrConfigValidation = errors.New("config validation failed")
)

// ValidationError reports a rejected single-field write.
type ValidationError struct {
	Key string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid value for %q: %v", e.Key, e.Err)
}

func (e *ValidationError) Unwrap() []error { return []error{ErrConfigValidation, e.Err} }

// Record is the persisted user configuration.
type Record struct {
	SelectedModel    *string `json:"selected_model"`
	TopP             float64 `json:"top_p" validate:"gte=0,lte=1"`
	TopK             float64 `json:"top_k" validate:"gte=0,lte=1"`
	Temperature      float64 `json:"temperature" validate:"gte=0,lte=1"`
	DatabaseURL      string  `json:"database_url" validate:"required"`
	DatabaseProvider string  `json:"database_provider" validate:"oneof=sqlite postgres mysql redis"`
}

func Default() Record {
	return Record{
		TopP:             1,
		TopK:             1,
		Temperature:      0.8,
		DatabaseURL:      DefaultDatabaseURL,
		DatabaseProvider: DefaultDatabaseProvider,
	}
}

// Model returns the selected model name, if any.
func (r Record) Model() (string, bool) {
	if r.SelectedModel == nil || *r.SelectedModel == "" {
		return "", false
	}
	return *r.SelectedModel, true
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (r Record) Validate() error {
	return validate.Struct(r)
}

// Keys lists the JSON keys accepted by Store.Write.
func Keys() []string {
	return []string{"selected_model", "top_p", "top_k", "temperature", "database_url", "database_provider"}
}

func (r *Record) set(key string, value any) error {
	switch key {
	case "selected_model":
		switch v := value.(type) {
		case nil:
			r.SelectedModel = nil
		case string:
			if v == "" {
				r.SelectedModel = nil
			} else {
				r.SelectedModel = &v
			}
		case *string:
			r.SelectedModel = v
		default:
			return fmt.Errorf("expected string, got %T", value)
		}
	case "top_p":
		return setFloat(&r.TopP, value)
	case "top_k":
		return setFloat(&r.TopK, value)
	case "temperature":
		return setFloat(&r.Temperature, value)
	case "database_url":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		r.DatabaseURL = strings.TrimSpace(v)
	case "database_provider":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		r.DatabaseProvider = strings.ToLower(strings.TrimSpace(v))
	default:
		return errors.New("unknown key")
	}
	return nil
}

func setFloat(dst *float64, value any) error {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		*dst = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("expected number: %w", err)
		}
		*dst = f
	default:
		rv := reflect.ValueOf(value)
		switch {
		case rv.CanFloat():
			*dst = rv.Float()
		case rv.CanInt():
			*dst = float64(rv.Int())
		case rv.CanUint():
			*dst = float64(rv.Uint())
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	}
	return nil
}
