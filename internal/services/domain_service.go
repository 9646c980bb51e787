package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/validator"
)

// DomainServiceConfig holds the provider endpoints baked into the
// verification records handed to customers.
type DomainServiceConfig struct {
	InboundMailHost string
	DKIMHost        string
}

// DomainService manages customer domains and their verification
// records. An inbox may only be bound to a domain whose aggregate
// verified flag is true.
type DomainService struct {
	domains  repository.DomainRepository
	verifier DNSVerifierService
	config   DomainServiceConfig
	logger   *slog.Logger
}

// NewDomainService creates a new DomainService instance
func NewDomainService(domains repository.DomainRepository, verifier DNSVerifierService, config DomainServiceConfig, logger *slog.Logger) *DomainService {
	return &DomainService{
		domains:  domains,
		verifier: verifier,
		config:   config,
		logger:   logger,
	}
}

// Create registers a domain with its pending verification records:
// the inbound MX, a DMARC TXT, and three DKIM CNAMEs with fresh
// selectors.
func (s *DomainService) Create(ctx context.Context, orgID uint, name string) (*models.Domain, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := validator.ValidateDomain(name); err != nil {
		return nil, fmt.Errorf("malformed domain name %q: %w", name, apperrors.ErrInvalidInput)
	}

	records := []models.DomainRecord{
		{Type: "MX", Name: "@", Value: s.config.InboundMailHost, Priority: 10, Status: models.RecordPending},
		{Type: "TXT", Name: "_dmarc", Value: "v=DMARC1; p=none;", Status: models.RecordPending},
	}
	for i := 0; i < 3; i++ {
		selector, err := randomSelector()
		if err != nil {
			return nil, fmt.Errorf("failed to generate dkim selector: %w", err)
		}
		records = append(records, models.DomainRecord{
			Type:   "CNAME",
			Name:   selector + "._domainkey",
			Value:  fmt.Sprintf("%s.%s", selector, s.config.DKIMHost),
			Status: models.RecordPending,
		})
	}

	domain := &models.Domain{
		OrganizationID: orgID,
		Name:           name,
		Records:        records,
	}
	if err := s.domains.Create(ctx, domain); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateEntry, name)
		}
		return nil, err
	}
	return domain, nil
}

// Get retrieves a domain scoped to an organization
func (s *DomainService) Get(ctx context.Context, orgID, domainID uint) (*models.Domain, error) {
	domain, err := s.domains.GetByOrganizationAndID(ctx, orgID, domainID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrDomainNotFound
		}
		return nil, err
	}
	return domain, nil
}

// List retrieves all domains of an organization
func (s *DomainService) List(ctx context.Context, orgID uint) ([]models.Domain, error) {
	return s.domains.ListByOrganization(ctx, orgID)
}

// Verify re-checks the domain's DNS records and persists the per-record
// and aggregate verification state.
func (s *DomainService) Verify(ctx context.Context, orgID, domainID uint) (*models.Domain, error) {
	domain, err := s.Get(ctx, orgID, domainID)
	if err != nil {
		return nil, err
	}

	result, err := s.verifier.VerifyDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("dns verification failed: %w", err)
	}

	domain.Records = result.Records
	domain.Verified = result.AllVerified
	if err := s.domains.Update(ctx, domain); err != nil {
		return nil, err
	}

	s.logger.Info("domain verification checked",
		slog.String("domain", domain.Name),
		slog.Bool("verified", domain.Verified),
	)
	return domain, nil
}

// Delete removes a domain scoped to an organization
func (s *DomainService) Delete(ctx context.Context, orgID, domainID uint) error {
	err := s.domains.Delete(ctx, orgID, domainID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrDomainNotFound
	}
	return err
}

// randomSelector returns a short hex token used as a DKIM selector.
func randomSelector() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
