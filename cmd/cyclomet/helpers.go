package main

import (
	"github.com/urfave/cli/v2"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/analyzer/external"
	"github.com/marchview/cyclomet/pkg/analyzer/structured"
	"github.com/marchview/cyclomet/pkg/analyzer/textual"
	"github.com/marchview/cyclomet/pkg/config"
)

// loadConfig resolves the config from the --config flag or standard locations
// and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if t := c.Int("threshold"); t > 0 {
		cfg.Threshold.Complexity = t
	}
	return cfg, nil
}

// buildRegistry wires the dispatch order: the structured analyzer first,
// then the delegating Python analyzer with its heuristic fallback.
func buildRegistry(cfg *config.Config) *analyzer.Registry {
	registry := analyzer.NewRegistry()
	registry.Register(structured.New())

	var client *external.Client
	if command, ok := cfg.External.Commands[analyzer.LangPython]; ok && len(command) > 0 {
		client = external.NewClient(command, ".py", cfg.External.Timeout(), cfg.External.MaxOutputBytes)
	}
	registry.Register(external.New(client, textual.New()))

	return registry
}

// getPaths returns paths from positional args, defaulting to ["."].
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}
