// Package validator checks and sanitizes caller-supplied input:
// recipient addresses, explicit inbox addresses, customer domain names
// and inbound mail headers.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidDomain    = errors.New("invalid domain format")
	ErrInvalidLocalPart = errors.New("invalid local part format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrEmptyInput       = errors.New("input cannot be empty")
)

var (
	// DNS labels: lowercase alphanumerics and hyphens, 63 chars max,
	// no leading or trailing hyphen.
	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

	// Local parts the platform provisions: lowercase alphanumerics
	// plus dots, underscores and hyphens.
	localPartRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)
)

// ValidateEmail checks that email parses as an RFC 5322 address and
// fits the RFC 5321 length limit.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateDomain checks a customer domain name. Only fully qualified
// names are accepted; a bare label cannot receive mail here.
func ValidateDomain(domain string) error {
	domain = strings.TrimSpace(strings.ToLower(domain))

	if domain == "" {
		return ErrEmptyInput
	}
	if len(domain) > 253 {
		return ErrInputTooLong
	}
	if !strings.Contains(domain, ".") {
		return ErrInvalidDomain
	}
	if !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}
	return nil
}

// ValidateLocalPart checks the local part of an inbox address against
// the character set the platform provisions.
func ValidateLocalPart(localPart string) error {
	localPart = strings.TrimSpace(strings.ToLower(localPart))

	if localPart == "" {
		return ErrEmptyInput
	}
	if len(localPart) > 64 {
		return ErrInputTooLong
	}
	if !localPartRegex.MatchString(localPart) {
		return ErrInvalidLocalPart
	}
	return nil
}

// SanitizeFilename strips path separators and control characters from
// an attachment filename before it is persisted.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	filename = strings.ReplaceAll(filename, "\x00", "")

	filename = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, filename)

	filename = strings.TrimSpace(filename)

	if utf8.RuneCountInString(filename) > 255 {
		runes := []rune(filename)
		filename = string(runes[:255])
	}

	if filename == "" {
		return "unnamed"
	}
	return filename
}

// SanitizeString removes control characters, trims whitespace and caps
// the length when maxLength is positive. Used on header values taken
// from inbound mail.
func SanitizeString(input string, maxLength int) string {
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}
	return input
}
