package service

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
)

// MaxSearchLength bounds free-text search terms (club search, event keyword
// and substring filters).
const MaxSearchLength = 100

// validateSearch trims a search term and rejects ones that are too long or
// contain control characters. The term is only ever bound as a query
// parameter, so no keyword filtering is needed.
func validateSearch(field, term string) (string, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) > MaxSearchLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxSearchLength))
	}
	for _, r := range term {
		if unicode.IsControl(r) {
			return "", apperror.ValidationFailed(field, field+" contains control characters")
		}
	}
	return term, nil
}

// foldEnum normalises a list filter value; filters match any letter case.
func foldEnum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// parseCategory matches s exactly against the known categories. Blank
// input returns "".
func parseCategory(s string) (model.Category, error) {
	if s == "" {
		return "", nil
	}
	c := model.Category(s)
	if !c.Valid() {
		return "", apperror.ValidationFailed("category",
			"category must be one of "+model.EnumList(model.Categories))
	}
	return c, nil
}

func parseDifficulty(s string) (model.Difficulty, error) {
	if s == "" {
		return "", nil
	}
	d := model.Difficulty(s)
	if !d.Valid() {
		return "", apperror.ValidationFailed("difficulty",
			"difficulty must be one of "+model.EnumList(model.Difficulties))
	}
	return d, nil
}

func parseStatus(s string) (model.EventStatus, error) {
	if s == "" {
		return "", nil
	}
	st := model.EventStatus(s)
	if !st.Valid() {
		return "", apperror.ValidationFailed("status", "status must be RECRUITING or COMPLETED")
	}
	return st, nil
}

// firstNonBlank returns the first value that is non-nil and not blank,
// trimmed.
func firstNonBlank(values ...*string) *string {
	for _, v := range values {
		if t := trimmedOrNil(v); t != nil {
			return t
		}
	}
	return nil
}

// trimmedOrNil trims s and maps blank to nil.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
