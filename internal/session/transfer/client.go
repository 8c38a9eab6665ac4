// Package transfer implements the HTTP/JSON protocol between the session
// controller and the profile service: flat optional-field JSON bodies and a
// bearer token on every call.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"profilegate/internal/profile"
	"profilegate/pkg/sentinel"
)

// Error is an HTTP-level failure talking to the profile service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("transfer: %s (status %d)", e.Message, e.Status)
}

// Client talks to the profile service. A 404 on fetch is reported as
// sentinel.ErrNotFound: it is the "new identity" signal, not a failure.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP allows tests to inject an httptest client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, http: httpClient}
}

// Fetch returns the caller's profile record.
func (c *Client) Fetch(ctx context.Context, bearer string) (profile.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/profile", nil)
	if err != nil {
		return profile.Record{}, &Error{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return profile.Record{}, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return profile.Record{}, sentinel.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return profile.Record{}, errorFromResponse(resp, "profile fetch rejected")
	}

	var record profile.Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return profile.Record{}, &Error{Status: resp.StatusCode, Message: "malformed profile response"}
	}
	return record, nil
}

// Upsert sends a merge-patch and returns the full resulting record.
func (c *Client) Upsert(ctx context.Context, bearer string, patch profile.Patch) (profile.Record, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return profile.Record{}, &Error{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/profile", bytes.NewReader(body))
	if err != nil {
		return profile.Record{}, &Error{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return profile.Record{}, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return profile.Record{}, errorFromResponse(resp, "profile write rejected")
	}

	var record profile.Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return profile.Record{}, &Error{Status: resp.StatusCode, Message: "malformed profile response"}
	}
	return record, nil
}

// VerifyEmail asks the service to confirm the email as verified.
func (c *Client) VerifyEmail(ctx context.Context, bearer string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/profile/verify-email", nil)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp, "verify email rejected")
	}
	return nil
}

// errorFromResponse lifts the service's {"error": ...} envelope into a
// transfer Error, falling back to a generic message on an unreadable body.
func errorFromResponse(resp *http.Response, fallback string) *Error {
	var envelope struct {
		Code    string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &Error{Status: resp.StatusCode, Message: fallback}
	}
	message := envelope.Details
	if message == "" {
		message = envelope.Code
	}
	if message == "" {
		message = fallback
	}
	return &Error{Status: resp.StatusCode, Message: message}
}
