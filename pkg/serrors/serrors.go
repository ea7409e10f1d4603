package serrors

import (
	"fmt"
	"strings"
)

// BaseError is a coded error carried across service boundaries. Code is a
// stable machine-readable identifier, Message is human readable, Details is
// optional free-form context.
type BaseError struct {
	Code    string
	Message string
	Details string
}

func (e *BaseError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func NewError(code, message, details string) *BaseError {
	return &BaseError{Code: code, Message: message, Details: details}
}

// NewMissingColumns reports reference-table columns that are absent from the
// live table. Raised before any snapshot query is issued against the table.
func NewMissingColumns(table string, columns []string) *BaseError {
	return &BaseError{
		Code:    "REF_MISSING_COLUMNS",
		Message: fmt.Sprintf("table %s is missing required columns", table),
		Details: strings.Join(columns, ", "),
	}
}
