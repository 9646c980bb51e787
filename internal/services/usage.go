package services

import (
	"context"
	"time"

	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
)

// UsageGuard is the metering collaborator consulted before every send.
// A false verdict means the organization's quota is spent and no
// message may be created.
type UsageGuard interface {
	Allow(ctx context.Context, org *models.Organization) (bool, error)
}

// dailyUsageGuard meters sends against a per-organization daily
// message count. An organization limit of zero falls back to the
// platform default; a negative limit disables metering.
type dailyUsageGuard struct {
	messages     repository.MessageRepository
	defaultLimit int
	now          func() time.Time
}

// NewDailyUsageGuard creates a UsageGuard counting messages per
// calendar day (UTC).
func NewDailyUsageGuard(messages repository.MessageRepository, defaultLimit int) UsageGuard {
	return &dailyUsageGuard{
		messages:     messages,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// Allow reports whether the organization may send another message today.
func (g *dailyUsageGuard) Allow(ctx context.Context, org *models.Organization) (bool, error) {
	limit := org.DailyMessageLimit
	if limit == 0 {
		limit = g.defaultLimit
	}
	if limit < 0 {
		return true, nil
	}

	now := g.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	count, err := g.messages.CountByOrganizationBetween(ctx, org.ID, start, end)
	if err != nil {
		return false, err
	}
	return count < int64(limit), nil
}
