package services

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inboxkit/inboxkit/internal/models"
)

// MockDNSResolver is a mock implementation of DNSResolver
type MockDNSResolver struct {
	mock.Mock
}

func (m *MockDNSResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*net.MX), args.Error(1)
}

func (m *MockDNSResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDNSResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	args := m.Called(ctx, host)
	return args.String(0), args.Error(1)
}

func fastVerifierConfig() DNSVerifierConfig {
	return DNSVerifierConfig{
		MaxRetries:    0,
		RetryDelay:    time.Millisecond,
		LookupTimeout: time.Second,
	}
}

func TestVerifyMXRecord_Success(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupMX", mock.Anything, "example.com").Return([]*net.MX{
		{Host: "inbound.inboxkit.dev.", Pref: 10},
	}, nil)

	verified, err := service.VerifyMXRecord(context.Background(), "example.com", "inbound.inboxkit.dev")

	assert.NoError(t, err)
	assert.True(t, verified)
	mockResolver.AssertExpectations(t)
}

func TestVerifyMXRecord_Mismatch(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupMX", mock.Anything, "example.com").Return([]*net.MX{
		{Host: "mx.other-provider.net.", Pref: 10},
	}, nil)

	verified, err := service.VerifyMXRecord(context.Background(), "example.com", "inbound.inboxkit.dev")

	assert.Error(t, err)
	assert.False(t, verified)
}

func TestVerifyMXRecord_LookupError(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupMX", mock.Anything, "example.com").Return(nil, errors.New("no such host"))

	verified, err := service.VerifyMXRecord(context.Background(), "example.com", "inbound.inboxkit.dev")

	assert.Error(t, err)
	assert.False(t, verified)
}

func TestVerifyTXTRecord_Success(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupTXT", mock.Anything, "_dmarc.example.com").Return([]string{
		"v=DMARC1; p=none;",
	}, nil)

	verified, err := service.VerifyTXTRecord(context.Background(), "_dmarc.example.com", "v=DMARC1; p=none;")

	assert.NoError(t, err)
	assert.True(t, verified)
}

func TestVerifyTXTRecord_Mismatch(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupTXT", mock.Anything, "_dmarc.example.com").Return([]string{
		"v=spf1 -all",
	}, nil)

	verified, err := service.VerifyTXTRecord(context.Background(), "_dmarc.example.com", "v=DMARC1; p=none;")

	assert.Error(t, err)
	assert.False(t, verified)
}

func TestVerifyCNAMERecord_Success(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupCNAME", mock.Anything, "sel1._domainkey.example.com").
		Return("sel1.dkim.inboxkit.dev.", nil)

	verified, err := service.VerifyCNAMERecord(context.Background(), "sel1._domainkey.example.com", "sel1.dkim.inboxkit.dev")

	assert.NoError(t, err)
	assert.True(t, verified)
}

func TestVerifyCNAMERecord_Mismatch(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	mockResolver.On("LookupCNAME", mock.Anything, "sel1._domainkey.example.com").
		Return("example.com.", nil)

	verified, err := service.VerifyCNAMERecord(context.Background(), "sel1._domainkey.example.com", "sel1.dkim.inboxkit.dev")

	assert.Error(t, err)
	assert.False(t, verified)
}

func TestVerifyDomain_AllRecordsVerified(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	domain := &models.Domain{
		Name: "example.com",
		Records: []models.DomainRecord{
			{Type: "MX", Name: "@", Value: "inbound.inboxkit.dev", Priority: 10, Status: models.RecordPending},
			{Type: "TXT", Name: "_dmarc", Value: "v=DMARC1; p=none;", Status: models.RecordPending},
			{Type: "CNAME", Name: "sel1._domainkey", Value: "sel1.dkim.inboxkit.dev", Status: models.RecordPending},
		},
	}

	mockResolver.On("LookupMX", mock.Anything, "example.com").Return([]*net.MX{
		{Host: "inbound.inboxkit.dev.", Pref: 10},
	}, nil)
	mockResolver.On("LookupTXT", mock.Anything, "_dmarc.example.com").Return([]string{
		"v=DMARC1; p=none;",
	}, nil)
	mockResolver.On("LookupCNAME", mock.Anything, "sel1._domainkey.example.com").
		Return("sel1.dkim.inboxkit.dev.", nil)

	result, err := service.VerifyDomain(context.Background(), domain)

	assert.NoError(t, err)
	assert.True(t, result.AllVerified)
	assert.Len(t, result.Records, 3)
	for _, record := range result.Records {
		assert.Equal(t, models.RecordVerified, record.Status)
	}
}

func TestVerifyDomain_PartialFailureKeepsPending(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	domain := &models.Domain{
		Name: "example.com",
		Records: []models.DomainRecord{
			{Type: "MX", Name: "@", Value: "inbound.inboxkit.dev", Priority: 10, Status: models.RecordPending},
			{Type: "TXT", Name: "_dmarc", Value: "v=DMARC1; p=none;", Status: models.RecordPending},
		},
	}

	mockResolver.On("LookupMX", mock.Anything, "example.com").Return([]*net.MX{
		{Host: "inbound.inboxkit.dev.", Pref: 10},
	}, nil)
	mockResolver.On("LookupTXT", mock.Anything, "_dmarc.example.com").Return(nil, errors.New("no such host"))

	result, err := service.VerifyDomain(context.Background(), domain)

	assert.NoError(t, err)
	assert.False(t, result.AllVerified)
	assert.Equal(t, models.RecordVerified, result.Records[0].Status)
	assert.Equal(t, models.RecordPending, result.Records[1].Status)
	assert.NotEmpty(t, result.Errors)
}

func TestVerifyDomain_NoRecordsNotVerified(t *testing.T) {
	mockResolver := new(MockDNSResolver)
	service := NewDNSVerifierServiceWithResolver(fastVerifierConfig(), mockResolver)

	result, err := service.VerifyDomain(context.Background(), &models.Domain{Name: "example.com"})

	assert.NoError(t, err)
	assert.False(t, result.AllVerified)
	assert.Empty(t, result.Records)
}
