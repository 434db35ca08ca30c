package config

// Config represents the full application configuration.
type Config struct {
	GitLab        GitLabConfig              `yaml:"gitlab"`
	Jira          JiraConfig                `yaml:"jira"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	HTTP          HTTPConfig                `yaml:"http"`
	Git           GitConfig                 `yaml:"git"`
	Review        ReviewConfig              `yaml:"review"`
	Output        OutputConfig              `yaml:"output"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// GitLabConfig configures the merge request host.
type GitLabConfig struct {
	BaseURL string `yaml:"baseURL"`
	Token   string `yaml:"token"`
	Project string `yaml:"project"`
}

// JiraConfig configures comment posting to the issue tracker.
type JiraConfig struct {
	BaseURL      string `yaml:"baseURL"`
	Email        string `yaml:"email"`
	Token        string `yaml:"token"`
	IssuePattern string `yaml:"issuePattern"` // Regexp for extracting issue keys from MR titles/branches
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// GitConfig configures the local review mode.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// ReviewConfig tunes the prompt and the response compiler.
type ReviewConfig struct {
	Instructions string `yaml:"instructions"`
	// BlankLinePolicy is "skip" or "emptyParagraph".
	BlankLinePolicy string `yaml:"blankLinePolicy"`
	// BulletDialect is "star" (depth by repetition) or "dot" (flat bullets).
	BulletDialect string `yaml:"bulletDialect"`
}

// OutputConfig configures the local artifact directory.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // human, json
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}
