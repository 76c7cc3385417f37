// Package forms binds submitted HTML forms, validates them field by field and
// hands clean values to the services.
package forms

import (
	"errors"
	"strconv"
	"strings"

	"yatube/internal/models"
)

// Messages shared by several forms.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Errors maps a field name to its messages. The "__all__" key holds
// form-wide errors.
type Errors map[string][]string

const nonField = "__all__"

// Add appends msg to field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages of field.
func (e Errors) Get(field string) []string {
	return e[field]
}

// NonField returns form-wide messages.
func (e Errors) NonField() []string {
	return e[nonField]
}

// Valid reports whether no errors were recorded.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// absorb turns a service error into a field error when it is a validation
// error, and returns any other error unchanged.
func (e Errors) absorb(field string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		e.Add(field, appErr.Message)
		return nil
	}
	return err
}

// parseOptionalID reads a select value: "" means none.
func parseOptionalID(raw string) (*uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, false
	}
	id := uint(n)
	return &id, true
}
