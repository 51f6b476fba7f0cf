package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "cyclomet",
		Usage:   "Per-function cyclomatic complexity with interactive re-analysis",
		Version: version,
		Description: `Cyclomet computes McCabe cyclomatic complexity per function across
JavaScript, TypeScript (incl. JSX/TSX) and Python, with an edit-aware
cache for interactive sessions.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CYCLOMET_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "Complexity severity threshold (overrides config)",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
