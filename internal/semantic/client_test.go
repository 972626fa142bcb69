package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_EmptyURLDisablesStage(t *testing.T) {
	assert.Nil(t, NewClient("", 5*time.Second))
}

func TestAnalyze_BenignVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello world", req["payload"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"verdict": "benign", "reason": "no similar attack pattern"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	verdict, err := client.Analyze(context.Background(), "hello world")
	require.NoError(t, err)
	assert.False(t, verdict.Malicious)
	assert.Equal(t, "no similar attack pattern", verdict.Reason)
}

func TestAnalyze_MaliciousVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"verdict": "malicious", "detected_pattern": "Blind SQLi", "reason": "similar to known payload"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	verdict, err := client.Analyze(context.Background(), "suspicious")
	require.NoError(t, err)
	assert.True(t, verdict.Malicious)
	assert.Equal(t, "Blind SQLi", verdict.DetectedPattern)
}

func TestAnalyze_MaliciousWithoutPatternGetsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"verdict": "malicious"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	verdict, err := client.Analyze(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, verdict.Malicious)
	assert.Equal(t, "Unknown Pattern", verdict.DetectedPattern)
}

func TestAnalyze_Non2xxIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestAnalyze_MalformedBodyIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestAnalyze_ConnectionRefusedIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second)
	_, err := client.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestAnalyze_TimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Analyze(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
}
