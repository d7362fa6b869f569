package dto

import (
	"fmt"
	"strings"

	"github.com/cesargomez89/plexsage/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateGenres(genres []string) []ValidationError {
	var errs []ValidationError
	for _, g := range genres {
		if strings.TrimSpace(g) == "" {
			errs = append(errs, ValidationError{Field: "genres", Message: "must not contain empty names"})
			break
		}
	}
	return errs
}

func validateDecades(decades []string) []ValidationError {
	var errs []ValidationError
	for _, d := range decades {
		if _, err := domain.ParseDecade(d); err != nil {
			errs = append(errs, ValidationError{Field: "decades", Message: fmt.Sprintf("invalid decade %q (expected: 1990s or 1990)", d)})
		}
	}
	return errs
}

func validateMinRating(rating int) []ValidationError {
	var errs []ValidationError
	if rating < 0 || rating > 10 {
		errs = append(errs, ValidationError{Field: "min_rating", Message: "must be between 0 and 10"})
	}
	return errs
}

func validateLimit(limit int) []ValidationError {
	var errs []ValidationError
	if limit < 0 {
		errs = append(errs, ValidationError{Field: "limit", Message: "must not be negative"})
	}
	return errs
}
