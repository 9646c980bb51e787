package services

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/inboxkit/inboxkit/internal/models"
)

// DNSVerificationResult carries the per-record outcome of a
// verification pass plus the aggregate flag.
type DNSVerificationResult struct {
	Records     []models.DomainRecord `json:"records"`
	AllVerified bool                  `json:"all_verified"`
	Errors      []string              `json:"errors,omitempty"`
}

// DNSVerifierConfig holds configuration for the DNS verifier service
type DNSVerifierConfig struct {
	MaxRetries    int
	RetryDelay    time.Duration
	LookupTimeout time.Duration
}

// DefaultDNSVerifierConfig returns default configuration for DNS verifier
func DefaultDNSVerifierConfig() DNSVerifierConfig {
	return DNSVerifierConfig{
		MaxRetries:    2,
		RetryDelay:    2 * time.Second,
		LookupTimeout: 10 * time.Second,
	}
}

// DNSVerifierService defines the interface for DNS verification
type DNSVerifierService interface {
	// VerifyDomain checks every record attached to the domain and
	// returns the refreshed record list with updated statuses.
	VerifyDomain(ctx context.Context, domain *models.Domain) (*DNSVerificationResult, error)

	// VerifyMXRecord checks if an MX record points to the expected host
	VerifyMXRecord(ctx context.Context, domainName, expectedHost string) (bool, error)

	// VerifyTXTRecord checks if a TXT record holds the expected value
	VerifyTXTRecord(ctx context.Context, name, expectedValue string) (bool, error)

	// VerifyCNAMERecord checks if a CNAME points to the expected target
	VerifyCNAMERecord(ctx context.Context, name, expectedTarget string) (bool, error)
}

// DNSResolver interface for DNS lookups (allows mocking in tests)
type DNSResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// defaultDNSResolver implements DNSResolver using net package
type defaultDNSResolver struct {
	resolver *net.Resolver
}

func newDefaultDNSResolver(timeout time.Duration) *defaultDNSResolver {
	return &defaultDNSResolver{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{
					Timeout: timeout,
				}
				return d.DialContext(ctx, network, address)
			},
		},
	}
}

func (r *defaultDNSResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return r.resolver.LookupMX(ctx, name)
}

func (r *defaultDNSResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return r.resolver.LookupTXT(ctx, name)
}

func (r *defaultDNSResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	return r.resolver.LookupCNAME(ctx, host)
}

// dnsVerifierService implements DNSVerifierService
type dnsVerifierService struct {
	config   DNSVerifierConfig
	resolver DNSResolver
}

// NewDNSVerifierService creates a new DNSVerifierService instance
func NewDNSVerifierService(config DNSVerifierConfig) DNSVerifierService {
	return &dnsVerifierService{
		config:   config,
		resolver: newDefaultDNSResolver(config.LookupTimeout),
	}
}

// NewDNSVerifierServiceWithResolver creates a new DNSVerifierService with custom resolver (for testing)
func NewDNSVerifierServiceWithResolver(config DNSVerifierConfig, resolver DNSResolver) DNSVerifierService {
	return &dnsVerifierService{
		config:   config,
		resolver: resolver,
	}
}

// recordFQDN expands a record name relative to the domain.
// "@" means the apex, anything else is prefixed.
func recordFQDN(domainName, recordName string) string {
	if recordName == "" || recordName == "@" {
		return domainName
	}
	return fmt.Sprintf("%s.%s", recordName, domainName)
}

// VerifyDomain checks every record attached to the domain with retries
// and returns the refreshed record list. A record already verified is
// re-checked; verification is not sticky.
func (s *dnsVerifierService) VerifyDomain(ctx context.Context, domain *models.Domain) (*DNSVerificationResult, error) {
	if domain == nil {
		return nil, fmt.Errorf("domain cannot be nil")
	}

	result := &DNSVerificationResult{
		Records:     make([]models.DomainRecord, 0, len(domain.Records)),
		AllVerified: len(domain.Records) > 0,
		Errors:      make([]string, 0),
	}

	for _, record := range domain.Records {
		fqdn := recordFQDN(domain.Name, record.Name)

		verified, err := s.verifyWithRetry(ctx, func(ctx context.Context) (bool, error) {
			switch strings.ToUpper(record.Type) {
			case "MX":
				return s.VerifyMXRecord(ctx, fqdn, record.Value)
			case "TXT":
				return s.VerifyTXTRecord(ctx, fqdn, record.Value)
			case "CNAME":
				return s.VerifyCNAMERecord(ctx, fqdn, record.Value)
			default:
				return false, fmt.Errorf("unsupported record type %q", record.Type)
			}
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", record.Type, fqdn, err))
		}

		if verified {
			record.Status = models.RecordVerified
		} else {
			record.Status = models.RecordPending
			result.AllVerified = false
		}
		result.Records = append(result.Records, record)
	}

	return result, nil
}

// verifyWithRetry executes a verification function with retry mechanism
func (s *dnsVerifierService) verifyWithRetry(ctx context.Context, verifyFunc func(context.Context) (bool, error)) (bool, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		verified, err := verifyFunc(ctx)
		if err == nil && verified {
			return true, nil
		}

		if err != nil {
			lastErr = err
		}

		// Don't sleep on the last attempt
		if attempt < s.config.MaxRetries {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}
	}

	if lastErr != nil {
		return false, lastErr
	}
	return false, nil
}

// VerifyMXRecord checks if MX record points to the expected host
func (s *dnsVerifierService) VerifyMXRecord(ctx context.Context, domainName, expectedHost string) (bool, error) {
	if domainName == "" {
		return false, fmt.Errorf("domain name cannot be empty")
	}
	if expectedHost == "" {
		return false, fmt.Errorf("expected host cannot be empty")
	}

	// Normalize expected host (remove trailing dot if present)
	expectedHost = strings.TrimSuffix(strings.ToLower(expectedHost), ".")

	mxRecords, err := s.resolver.LookupMX(ctx, domainName)
	if err != nil {
		return false, fmt.Errorf("MX lookup failed for %s: %w", domainName, err)
	}

	if len(mxRecords) == 0 {
		return false, fmt.Errorf("no MX records found for %s", domainName)
	}

	for _, mx := range mxRecords {
		mxHost := strings.TrimSuffix(strings.ToLower(mx.Host), ".")
		if mxHost == expectedHost {
			return true, nil
		}
	}

	return false, fmt.Errorf("MX record mismatch: expected %s, found %s", expectedHost, mxRecords[0].Host)
}

// VerifyTXTRecord checks if a TXT record holds the expected value
func (s *dnsVerifierService) VerifyTXTRecord(ctx context.Context, name, expectedValue string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("record name cannot be empty")
	}
	if expectedValue == "" {
		return false, fmt.Errorf("expected value cannot be empty")
	}

	txtRecords, err := s.resolver.LookupTXT(ctx, name)
	if err != nil {
		return false, fmt.Errorf("TXT lookup failed for %s: %w", name, err)
	}

	if len(txtRecords) == 0 {
		return false, fmt.Errorf("no TXT records found for %s", name)
	}

	for _, txt := range txtRecords {
		if strings.TrimSpace(txt) == strings.TrimSpace(expectedValue) {
			return true, nil
		}
	}

	return false, fmt.Errorf("TXT record mismatch: expected %q at %s", expectedValue, name)
}

// VerifyCNAMERecord checks if a CNAME points to the expected target
func (s *dnsVerifierService) VerifyCNAMERecord(ctx context.Context, name, expectedTarget string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("record name cannot be empty")
	}
	if expectedTarget == "" {
		return false, fmt.Errorf("expected target cannot be empty")
	}

	expectedTarget = strings.TrimSuffix(strings.ToLower(expectedTarget), ".")

	target, err := s.resolver.LookupCNAME(ctx, name)
	if err != nil {
		return false, fmt.Errorf("CNAME lookup failed for %s: %w", name, err)
	}

	target = strings.TrimSuffix(strings.ToLower(target), ".")
	if target == expectedTarget {
		return true, nil
	}

	return false, fmt.Errorf("CNAME mismatch: expected %s, found %s", expectedTarget, target)
}
