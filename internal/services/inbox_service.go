package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/validator"
)

// CreateInboxInput holds the provisioning request for a new inbox.
// Email and Domain are optional: with neither, the address is
// generated on the platform default domain.
type CreateInboxInput struct {
	Name   string
	Domain string
	Email  string
}

// InboxService provisions and manages inboxes: the write surface over
// the inbox directory.
type InboxService struct {
	inboxes       repository.InboxRepository
	domains       repository.DomainRepository
	messages      repository.MessageRepository
	generator     *AddressGenerator
	events        EventSender
	defaultDomain string
	logger        *slog.Logger
}

// NewInboxService creates a new InboxService instance
func NewInboxService(
	inboxes repository.InboxRepository,
	domains repository.DomainRepository,
	messages repository.MessageRepository,
	generator *AddressGenerator,
	events EventSender,
	defaultDomain string,
	logger *slog.Logger,
) *InboxService {
	return &InboxService{
		inboxes:       inboxes,
		domains:       domains,
		messages:      messages,
		generator:     generator,
		events:        events,
		defaultDomain: defaultDomain,
		logger:        logger,
	}
}

// Create provisions an inbox. An explicit email must sit on the
// platform default domain or on a domain already verified for the
// organization; otherwise the address is generated. The address
// uniqueness race is settled by the store's unique constraint, not by
// a prior lookup.
func (s *InboxService) Create(ctx context.Context, org *models.Organization, in CreateInboxInput) (*models.Inbox, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("inbox name is required: %w", apperrors.ErrInvalidInput)
	}

	var domainID *uint
	if in.Domain != "" {
		domain, err := s.domains.GetVerifiedByOrganizationAndName(ctx, org.ID, in.Domain)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.ErrDomainNotFound
			}
			return nil, err
		}
		domainID = &domain.ID
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		if err := s.validateExplicitEmail(ctx, org, email, in.Domain); err != nil {
			return nil, err
		}
	} else {
		generated, err := s.generator.Generate(ctx, name)
		if err != nil {
			return nil, err
		}
		email = generated
	}

	inbox := &models.Inbox{
		OrganizationID: org.ID,
		DomainID:       domainID,
		Name:           name,
		Email:          email,
	}
	if err := s.inboxes.Create(ctx, inbox); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAddressConflict, email)
		}
		return nil, err
	}

	s.events.SendEvent(ctx, org.ID, models.EventInboxCreated, NewInboxPayload(inbox), EventOptions{InboxID: &inbox.ID})
	return inbox, nil
}

// Get retrieves an inbox scoped to an organization
func (s *InboxService) Get(ctx context.Context, orgID, inboxID uint) (*models.Inbox, error) {
	inbox, err := s.inboxes.GetByOrganizationAndID(ctx, orgID, inboxID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInboxNotFound
		}
		return nil, err
	}
	return inbox, nil
}

// List retrieves all inboxes of an organization
func (s *InboxService) List(ctx context.Context, orgID uint) ([]models.Inbox, error) {
	return s.inboxes.ListByOrganization(ctx, orgID)
}

// Resolve maps an address to its inbox: the join point for inbound
// routing.
func (s *InboxService) Resolve(ctx context.Context, email string) (*models.Inbox, error) {
	inbox, err := s.inboxes.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInboxNotFound
		}
		return nil, err
	}
	return inbox, nil
}

// Delete removes an inbox and its messages, then emits inbox.deleted.
// Messages cascade before the inbox row itself goes away.
func (s *InboxService) Delete(ctx context.Context, orgID, inboxID uint) (*models.Inbox, error) {
	inbox, err := s.Get(ctx, orgID, inboxID)
	if err != nil {
		return nil, err
	}

	if err := s.messages.DeleteByInbox(ctx, inboxID); err != nil {
		return nil, err
	}
	if err := s.inboxes.Delete(ctx, orgID, inboxID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInboxNotFound
		}
		return nil, err
	}

	s.events.SendEvent(ctx, orgID, models.EventInboxDeleted, NewInboxPayload(inbox), EventOptions{InboxID: &inbox.ID})
	return inbox, nil
}

// validateExplicitEmail checks a caller-supplied address against the
// platform default domain and the organization's verified domains.
func (s *InboxService) validateExplicitEmail(ctx context.Context, org *models.Organization, email, requestedDomain string) error {
	if err := validator.ValidateEmail(email); err != nil {
		return fmt.Errorf("malformed email address: %w", apperrors.ErrInvalidInput)
	}

	at := strings.LastIndexByte(email, '@')
	if err := validator.ValidateLocalPart(email[:at]); err != nil {
		return fmt.Errorf("unsupported local part: %w", apperrors.ErrInvalidInput)
	}
	emailDomain := email[at+1:]

	if emailDomain == s.defaultDomain {
		return nil
	}
	if requestedDomain != "" && emailDomain == strings.ToLower(strings.TrimSpace(requestedDomain)) {
		return nil
	}

	_, err := s.domains.GetVerifiedByOrganizationAndName(ctx, org.ID, emailDomain)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("address domain %q is not verified for this organization: %w", emailDomain, apperrors.ErrDomainNotVerified)
		}
		return err
	}
	return nil
}
