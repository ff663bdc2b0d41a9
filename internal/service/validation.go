package service

import (
	"regexp"
	"strings"
	"unicode/utf16"

	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// maxEmailLength counts UTF-16 code units, matching browser form limits.
const maxEmailLength = 320

// Deliberately loose: one @, no whitespace, a dot in the domain. Whitespace
// includes Unicode space separators and the byte order mark.
var emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

// IsValidEmail reports whether value looks like an email address.
func IsValidEmail(value string) bool {
	if len(utf16.Encode([]rune(value))) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(value)
}

// NewTicketInput is the customer-supplied part of a ticket.
type NewTicketInput struct {
	CustomerName string
	Email        string
	Subject      string
	Description  string
}

// Normalize returns a copy with surrounding whitespace removed.
func (in NewTicketInput) Normalize() NewTicketInput {
	return NewTicketInput{
		CustomerName: strings.TrimSpace(in.CustomerName),
		Email:        strings.TrimSpace(in.Email),
		Subject:      strings.TrimSpace(in.Subject),
		Description:  strings.TrimSpace(in.Description),
	}
}

// ValidateRequired checks that every field is non-blank, reporting the first missing one.
func (in NewTicketInput) ValidateRequired() error {
	n := in.Normalize()
	switch {
	case n.CustomerName == "":
		return apperrors.NewValidationError("Customer name is required.", nil)
	case n.Email == "":
		return apperrors.NewValidationError("Email is required.", nil)
	case n.Subject == "":
		return apperrors.NewValidationError("Subject is required.", nil)
	case n.Description == "":
		return apperrors.NewValidationError("Description is required.", nil)
	}
	return nil
}

// Validate runs ValidateRequired and then checks the email format.
func (in NewTicketInput) Validate() error {
	if err := in.ValidateRequired(); err != nil {
		return err
	}
	if !IsValidEmail(strings.TrimSpace(in.Email)) {
		return apperrors.NewValidationError("Email must be a valid email address.", nil)
	}
	return nil
}
