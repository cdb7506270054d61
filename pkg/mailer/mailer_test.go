package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailUnconfigured(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.IsConfigured())

	err := c.SendEmail(context.Background(), "a@x.com", "Hi", "<p>Hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSendEmailRejectsEmptyFields(t *testing.T) {
	c := NewClient(Config{APIKey: "key", FromEmail: "noreply@x.com"})

	err := c.SendEmail(context.Background(), "", "Hi", "<p>Hi</p>")
	require.Error(t, err)
}

func TestSendEmailPostsToAPI(t *testing.T) {
	var got struct {
		Sender      map[string]string   `json:"sender"`
		To          []map[string]string `json:"to"`
		Subject     string              `json:"subject"`
		HTMLContent string              `json:"htmlContent"`
	}
	var gotAPIKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:    "secret",
		FromEmail: "noreply@x.com",
		FromName:  "AgroMart",
		APIURL:    srv.URL,
	})
	require.True(t, c.IsConfigured())

	err := c.SendEmail(context.Background(), "a@x.com", "Your OTP", "<p>123456</p>")
	require.NoError(t, err)

	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, "noreply@x.com", got.Sender["email"])
	require.Len(t, got.To, 1)
	assert.Equal(t, "a@x.com", got.To[0]["email"])
	assert.Equal(t, "Your OTP", got.Subject)
	assert.Equal(t, "<p>123456</p>", got.HTMLContent)
}

func TestSendEmailSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad key"})
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "wrong", FromEmail: "noreply@x.com", APIURL: srv.URL})
	err := c.SendEmail(context.Background(), "a@x.com", "Hi", "<p>Hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
