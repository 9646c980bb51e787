package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/repository"
)

const (
	// addressSuffixLength is the number of random characters appended
	// to a generated local part. 36^10 candidates make a collision
	// astronomically unlikely under normal load.
	addressSuffixLength = 10

	// maxGenerateAttempts bounds the regenerate-on-collision loop so a
	// pathological collision rate fails loudly instead of looping
	// forever.
	maxGenerateAttempts = 20

	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// AddressGenerator produces unpredictable, unused inbox addresses on
// the platform's default sending domain.
type AddressGenerator struct {
	inboxes       repository.InboxRepository
	defaultDomain string
}

// NewAddressGenerator creates a new AddressGenerator instance
func NewAddressGenerator(inboxes repository.InboxRepository, defaultDomain string) *AddressGenerator {
	return &AddressGenerator{
		inboxes:       inboxes,
		defaultDomain: defaultDomain,
	}
}

// Generate returns a fresh address derived from the display name: the
// normalized name, a random suffix, and the default domain. The inbox
// directory is consulted for collisions; after maxGenerateAttempts the
// generator gives up with ErrAddressSpaceExhausted.
func (g *AddressGenerator) Generate(ctx context.Context, name string) (string, error) {
	token := normalizeLocalPart(name)

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		suffix, err := randomSuffix(addressSuffixLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate address suffix: %w", err)
		}

		localPart := suffix
		if token != "" {
			localPart = token + "-" + suffix
		}
		email := fmt.Sprintf("%s@%s", localPart, g.defaultDomain)

		_, err = g.inboxes.GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return email, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check address availability: %w", err)
		}
		// Collision: regenerate
	}

	return "", apperrors.ErrAddressSpaceExhausted
}

// normalizeLocalPart lowers the display name and collapses every run
// of non-alphanumeric characters to a single dash.
func normalizeLocalPart(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = nonAlphanumeric.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// randomSuffix draws n characters from the suffix alphabet using
// crypto/rand. Bytes past the largest multiple of the alphabet size
// are rejected so every character is equally likely.
func randomSuffix(n int) (string, error) {
	const limit = 256 - 256%len(suffixAlphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, suffixAlphabet[int(b)%len(suffixAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
