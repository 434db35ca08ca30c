package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbraack/critique/internal/adf"
	llmhttp "github.com/tbraack/critique/internal/adapter/llm/http"
	"github.com/tbraack/critique/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.JiraConfig{Email: "bot@example.com", Token: "api-token"},
		config.HTTPConfig{MaxRetries: 0})
	client.SetBaseURL(server.URL)
	return client
}

func TestAddComment(t *testing.T) {
	var gotPath, gotBody string
	var gotUser, gotPass string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		bodyBytes, _ := io.ReadAll(r.Body)
		gotBody = string(bodyBytes)
		w.WriteHeader(http.StatusCreated)
	})

	doc := adf.Document(
		adf.Heading{Level: 3, Text: "Review"},
		adf.Paragraph{Inlines: []adf.Text{{Value: "Looks good."}}},
	)
	err := client.AddComment(context.Background(), "PROJ-123", doc)
	require.NoError(t, err)

	assert.Equal(t, "/rest/api/3/issue/PROJ-123/comment", gotPath)
	assert.Equal(t, "bot@example.com", gotUser)
	assert.Equal(t, "api-token", gotPass)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(gotBody), &payload))
	assert.JSONEq(t,
		`{"type":"doc","version":1,"content":[`+
			`{"type":"heading","attrs":{"level":3},"content":[{"type":"text","text":"Review"}]},`+
			`{"type":"paragraph","content":[{"type":"text","text":"Looks good."}]}]}`,
		string(payload["body"]))
}

func TestAddComment_AuthenticationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessages":["Authentication failed"]}`))
	})

	err := client.AddComment(context.Background(), "PROJ-1", adf.Document())
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.Contains(t, httpErr.Message, "Authentication failed")
}

func TestAddComment_UnknownIssue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Issue does not exist or you do not have permission to see it."]}`))
	})

	err := client.AddComment(context.Background(), "NOPE-404", adf.Document())
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeInvalidRequest, httpErr.Type)
	assert.False(t, httpErr.Retryable)
}

func TestAddComment_RetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(config.JiraConfig{Email: "bot@example.com", Token: "t"},
		config.HTTPConfig{MaxRetries: 2, InitialBackoff: "1ms", MaxBackoff: "1ms"})
	client.SetBaseURL(server.URL)

	err := client.AddComment(context.Background(), "PROJ-1", adf.Document())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
