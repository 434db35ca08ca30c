package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvString(t *testing.T) {
	os.Setenv("TEST_API_KEY", "secret-key-123")
	os.Setenv("TEST_PATH", "/path/to/data")
	defer os.Unsetenv("TEST_API_KEY")
	defer os.Unsetenv("TEST_PATH")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand ${VAR} syntax",
			input:    "${TEST_API_KEY}",
			expected: "secret-key-123",
		},
		{
			name:     "expand $VAR syntax",
			input:    "$TEST_API_KEY",
			expected: "secret-key-123",
		},
		{
			name:     "expand in middle of string",
			input:    "token:${TEST_API_KEY}:end",
			expected: "token:secret-key-123:end",
		},
		{
			name:     "leave non-existent var unchanged",
			input:    "${NONEXISTENT_VAR}",
			expected: "${NONEXISTENT_VAR}",
		},
		{
			name:     "handle empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain string untouched",
			input:    "no variables here",
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvString(tt.input))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "https://gitlab.com", cfg.GitLab.BaseURL)
	assert.Equal(t, `[A-Z][A-Z0-9]+-\d+`, cfg.Jira.IssuePattern)
	assert.Equal(t, "60s", cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.HTTP.MaxRetries)
	assert.Equal(t, "skip", cfg.Review.BlankLinePolicy)
	assert.Equal(t, "star", cfg.Review.BulletDialect)
	assert.Equal(t, "human", cfg.Observability.Logging.Format)
	assert.True(t, cfg.Store.Enabled)
}

func TestLoad_FileAndEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	content := `
gitlab:
  project: group/project
  token: ${TEST_GITLAB_TOKEN}
jira:
  baseURL: https://example.atlassian.net
providers:
  gemini:
    enabled: true
    model: gemini-2.0-flash
    apiKey: ${TEST_GEMINI_KEY}
review:
  blankLinePolicy: emptyParagraph
  bulletDialect: dot
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "critique.yaml"), []byte(content), 0o644))

	os.Setenv("TEST_GITLAB_TOKEN", "glpat-abc")
	os.Setenv("TEST_GEMINI_KEY", "AIza-xyz")
	defer os.Unsetenv("TEST_GITLAB_TOKEN")
	defer os.Unsetenv("TEST_GEMINI_KEY")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "group/project", cfg.GitLab.Project)
	assert.Equal(t, "glpat-abc", cfg.GitLab.Token)
	assert.Equal(t, "https://example.atlassian.net", cfg.Jira.BaseURL)
	require.Contains(t, cfg.Providers, "gemini")
	assert.Equal(t, "AIza-xyz", cfg.Providers["gemini"].APIKey)
	assert.Equal(t, "emptyParagraph", cfg.Review.BlankLinePolicy)
	assert.Equal(t, "dot", cfg.Review.BulletDialect)
}
