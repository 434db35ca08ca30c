package main

import (
	"testing"

	"github.com/tbraack/critique/internal/config"
	"github.com/tbraack/critique/internal/markup"
)

func TestCompilerOptionsDefaults(t *testing.T) {
	opts := compilerOptions(config.ReviewConfig{})
	if opts.BlankLines != markup.BlankSkip {
		t.Fatalf("expected blank lines skipped by default, got %v", opts.BlankLines)
	}
	if opts.Bullets != markup.BulletStar {
		t.Fatalf("expected star bullets by default, got %v", opts.Bullets)
	}
}

func TestCompilerOptionsOverrides(t *testing.T) {
	opts := compilerOptions(config.ReviewConfig{
		BlankLinePolicy: "emptyParagraph",
		BulletDialect:   "dot",
	})
	if opts.BlankLines != markup.BlankEmptyParagraph {
		t.Fatalf("expected empty paragraph policy, got %v", opts.BlankLines)
	}
	if opts.Bullets != markup.BulletDot {
		t.Fatalf("expected dot bullets, got %v", opts.Bullets)
	}
}

func TestBuildLoggerDisabled(t *testing.T) {
	if logger := buildLogger(config.LoggingConfig{Enabled: false}); logger != nil {
		t.Fatal("expected nil logger when logging disabled")
	}
}

func TestBuildProviderRequiresConfig(t *testing.T) {
	_, err := buildProvider(config.Config{}, nil)
	if err == nil {
		t.Fatal("expected error when no provider configured")
	}

	_, err = buildProvider(config.Config{
		Providers: map[string]config.ProviderConfig{
			"gemini": {Enabled: true},
		},
	}, nil)
	if err == nil {
		t.Fatal("expected error when API key missing")
	}
}

func TestBuildProvider(t *testing.T) {
	provider, err := buildProvider(config.Config{
		Providers: map[string]config.ProviderConfig{
			"gemini": {Enabled: true, APIKey: "test-key"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("buildProvider returned error: %v", err)
	}
	if provider.Name() != "gemini" {
		t.Fatalf("unexpected provider name %q", provider.Name())
	}
}

func TestDefaultConfigPathsIncludesWorkingDir(t *testing.T) {
	paths := defaultConfigPaths()
	if len(paths) == 0 || paths[0] != "." {
		t.Fatalf("expected working directory first, got %v", paths)
	}
}
