//go:build integration

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full-stack flow against a running instance with real Postgres, MongoDB and
// Redis behind it:
//
//	go test -tags integration ./...
//
// API_BASE overrides the default server address.
func apiBase() string {
	if v := os.Getenv("API_BASE"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}

type apiClient struct {
	t     *testing.T
	token string
}

func (c *apiClient) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, apiBase()+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestFullFlow(t *testing.T) {
	suffix := time.Now().UnixNano() % 1000000
	regNum := fmt.Sprintf("%06d", suffix)

	admin := &apiClient{t: t}
	resp, body := admin.do(http.MethodPost, "/auth/admin/login", map[string]any{
		"email":    getenvOr("ADMIN_EMAIL", "admin@college.edu"),
		"password": getenvOr("ADMIN_PASSWORD", "admin123"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	admin.token = body["token"].(string)

	// An already-ended event so the feedback step is reachable.
	resp, body = admin.do(http.MethodPost, "/events", map[string]any{
		"title":           "Integration Night",
		"description":     "end to end run",
		"date":            time.Now().Add(-2 * time.Hour).Format(time.RFC3339),
		"venue":           "Test Hall",
		"category":        "technical",
		"maxParticipants": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := body["event"].(map[string]any)
	eventID := event["id"].(string)

	student := &apiClient{t: t}
	resp, _ = student.do(http.MethodPost, "/auth/signup", map[string]any{
		"registrationNumber": regNum,
		"email":              fmt.Sprintf("it-%s@college.edu", regNum),
		"password":           "secret123",
		"name":               "Integration Student",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = student.do(http.MethodPost, "/auth/login", map[string]any{
		"registrationNumber": regNum,
		"password":           "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	student.token = body["token"].(string)

	resp, _ = student.do(http.MethodPost, "/events/"+eventID+"/register", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = student.do(http.MethodPost, "/events/"+eventID+"/register", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = student.do(http.MethodGet, "/auth/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	registered := body["registeredEvents"].([]any)
	assert.NotEmpty(t, registered)

	resp, _ = student.do(http.MethodPost, "/events/"+eventID+"/feedback", map[string]any{
		"rating":  5,
		"comment": "ran clean",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = student.do(http.MethodPost, "/events/"+eventID+"/feedback", map[string]any{"rating": 4})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = student.do(http.MethodGet, "/events/"+eventID+"/feedback", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["count"])

	public := &apiClient{t: t}
	resp, body = public.do(http.MethodGet, fmt.Sprintf("/events/grouped/%d", time.Now().Year()), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body, 12)

	// Cleanup; deleting the event cascades through registrations and feedback.
	resp, _ = admin.do(http.MethodDelete, "/events/"+eventID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func getenvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
