package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tbraack/critique/internal/adapter/cli"
	"github.com/tbraack/critique/internal/adapter/git"
	"github.com/tbraack/critique/internal/adapter/gitlab"
	"github.com/tbraack/critique/internal/adapter/jira"
	"github.com/tbraack/critique/internal/adapter/llm/gemini"
	llmhttp "github.com/tbraack/critique/internal/adapter/llm/http"
	"github.com/tbraack/critique/internal/adapter/output/markdown"
	"github.com/tbraack/critique/internal/adapter/store/sqlite"
	"github.com/tbraack/critique/internal/config"
	"github.com/tbraack/critique/internal/markup"
	"github.com/tbraack/critique/internal/usecase/review"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "critique",
		EnvPrefix:   "CRITIQUE",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability.Logging)

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	gitSource := git.NewSource(repoDir)

	// Timestamp function for deterministic output file naming
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	markdownWriter := markdown.NewWriter(nowFunc)

	gitlabClient := gitlab.NewClient(cfg.GitLab, cfg.HTTP)
	jiraClient := jira.NewClient(cfg.Jira, cfg.HTTP)

	var runStore review.RunStore
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				runStore = sqliteStore
				defer sqliteStore.Close()
			}
		}
	}

	var reviewLogger review.Logger
	if logger != nil {
		reviewLogger = logger
	}

	reviewer, err := review.NewReviewer(review.Dependencies{
		Changes:   gitlabClient,
		Notes:     gitlabClient,
		Comments:  jiraClient,
		Source:    gitSource,
		Provider:  provider,
		Store:     runStore,
		Artifacts: markdownWriter,
		Logger:    reviewLogger,
	}, review.Options{
		Instructions: cfg.Review.Instructions,
		Compiler:     compilerOptions(cfg.Review),
		IssuePattern: cfg.Jira.IssuePattern,
		OutputDir:    cfg.Output.Directory,
	})
	if err != nil {
		return fmt.Errorf("build reviewer: %w", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		MergeRequests:  reviewer,
		Local:          reviewer,
		Branches:       gitSource,
		DefaultProject: cfg.GitLab.Project,
		Version:        version,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrShouldReview) {
			os.Exit(1)
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "critique"))
	}
	return paths
}

// buildLogger creates the structured logger based on configuration.
// Format falls back to human on terminals and JSON otherwise.
func buildLogger(cfg config.LoggingConfig) *llmhttp.DefaultLogger {
	if !cfg.Enabled {
		return nil
	}

	logLevel := llmhttp.LogLevelInfo
	switch cfg.Level {
	case "debug":
		logLevel = llmhttp.LogLevelDebug
	case "error":
		logLevel = llmhttp.LogLevelError
	}

	var logFormat llmhttp.LogFormat
	switch cfg.Format {
	case "json":
		logFormat = llmhttp.LogFormatJSON
	case "human":
		logFormat = llmhttp.LogFormatHuman
	default:
		logFormat = llmhttp.LogFormatHuman
		if !review.IsOutputTerminal() {
			logFormat = llmhttp.LogFormatJSON
		}
	}

	return llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.RedactAPIKeys)
}

func buildProvider(cfg config.Config, logger *llmhttp.DefaultLogger) (review.Provider, error) {
	providerCfg, ok := cfg.Providers["gemini"]
	if !ok || !providerCfg.Enabled {
		return nil, fmt.Errorf("no enabled provider; configure providers.gemini")
	}

	model := providerCfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if providerCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key missing; set GEMINI_API_KEY or providers.gemini.apiKey")
	}

	client := gemini.NewHTTPClient(providerCfg.APIKey, model, providerCfg, cfg.HTTP)
	if logger != nil {
		client.SetLogger(logger)
	}
	return gemini.NewProvider(model, client), nil
}

func compilerOptions(cfg config.ReviewConfig) markup.Options {
	var opts markup.Options
	if cfg.BlankLinePolicy == "emptyParagraph" {
		opts.BlankLines = markup.BlankEmptyParagraph
	}
	if cfg.BulletDialect == "dot" {
		opts.Bullets = markup.BulletDot
	}
	return opts
}

// Compile-time interface compliance checks
var _ review.ChangesFetcher = (*gitlab.Client)(nil)
var _ review.NotePoster = (*gitlab.Client)(nil)
var _ review.CommentPoster = (*jira.Client)(nil)
var _ review.DiffSource = (*git.Source)(nil)
var _ review.Provider = (*gemini.Provider)(nil)
var _ review.RunStore = (*sqlite.Store)(nil)
var _ review.ArtifactWriter = (*markdown.Writer)(nil)
var _ review.Logger = (*llmhttp.DefaultLogger)(nil)
var _ cli.MergeRequestReviewer = (*review.Reviewer)(nil)
var _ cli.LocalReviewer = (*review.Reviewer)(nil)
var _ cli.BranchDetector = (*git.Source)(nil)
