//go:build api
// +build api

// Package api contains smoke tests that run against a live server.
// Run with: go test -tags=api ./tests/api/... -v
// The server address and API key come from API_BASE_URL and API_KEY.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultAPIKey  = "ik_test_0000000000000000000000000000"
)

type SmokeTestSuite struct {
	suite.Suite
	baseURL string
	apiKey  string
	client  *http.Client
}

func TestSmokeTestSuite(t *testing.T) {
	suite.Run(t, new(SmokeTestSuite))
}

func (s *SmokeTestSuite) SetupSuite() {
	s.baseURL = os.Getenv("API_BASE_URL")
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}
	s.apiKey = os.Getenv("API_KEY")
	if s.apiKey == "" {
		s.apiKey = defaultAPIKey
	}
	s.client = &http.Client{Timeout: 10 * time.Second}

	resp, err := s.client.Get(s.baseURL + "/health")
	if err != nil {
		s.T().Skipf("server not reachable at %s: %v", s.baseURL, err)
	}
	resp.Body.Close()
}

func (s *SmokeTestSuite) request(method, path string, body any) (int, map[string]any) {
	s.T().Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.baseURL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var decoded map[string]any
	if len(raw) > 0 {
		json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func (s *SmokeTestSuite) TestHealthAndReadiness() {
	resp, err := s.client.Get(s.baseURL + "/health")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = s.client.Get(s.baseURL + "/ready")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *SmokeTestSuite) TestAuthIsEnforced() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/inboxes", nil)
	s.Require().NoError(err)
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *SmokeTestSuite) TestInboxRoundTrip() {
	status, body := s.request(http.MethodPost, "/api/inboxes", map[string]any{
		"name": fmt.Sprintf("smoke-%d", time.Now().UnixNano()),
	})
	s.Require().Equal(http.StatusCreated, status, "body: %v", body)

	data := body["data"].(map[string]any)
	id := int(data["id"].(float64))
	s.NotEmpty(data["email"])

	status, _ = s.request(http.MethodGet, fmt.Sprintf("/api/inboxes/%d", id), nil)
	s.Equal(http.StatusOK, status)

	status, _ = s.request(http.MethodDelete, fmt.Sprintf("/api/inboxes/%d", id), nil)
	s.Equal(http.StatusNoContent, status)
}

func (s *SmokeTestSuite) TestWebhookListing() {
	status, body := s.request(http.MethodGet, "/api/webhooks", nil)
	s.Equal(http.StatusOK, status)
	s.Equal(true, body["success"])
}
