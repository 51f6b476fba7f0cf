package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/fileproc"
	"github.com/marchview/cyclomet/pkg/models"
	"github.com/marchview/cyclomet/pkg/output"
	"github.com/marchview/cyclomet/pkg/progress"
	"github.com/marchview/cyclomet/pkg/scanner"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"cx"},
		Usage:     "Analyze cyclomatic complexity for files or directories",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-on-high",
				Usage: "Exit non-zero if any function classifies as high severity",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := scanner.Scan(getPaths(c), cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	registry := buildRegistry(cfg)
	tracker := progress.NewTracker("Analyzing complexity...", len(files))

	results := fileproc.MapFilesN(files, 0, func(path string) (models.FileResult, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return models.FileResult{}, err
		}
		lang := analyzer.DetectLanguage(path)
		functions, err := registry.Analyze(context.Background(), lang, src)
		if err != nil {
			return models.FileResult{}, err
		}
		return models.FileResult{Path: path, Language: lang, Functions: functions}, nil
	}, tracker.Tick, func(path string, err error) {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
	})
	tracker.FinishSuccess()

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	threshold := cfg.Threshold.Complexity
	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	colored := formatter.Format() == output.FormatText && c.String("output") == ""
	var rows [][]string
	highCount := 0
	for _, file := range results {
		for _, fn := range file.Functions {
			if models.Classify(fn.Complexity, threshold) == models.SeverityHigh {
				highCount++
			}
			rows = append(rows, []string{
				file.Path,
				fn.Name,
				fmt.Sprintf("%d", fn.Line),
				output.SeverityString(fn.Complexity, threshold, colored),
				string(models.Classify(fn.Complexity, threshold)),
			})
		}
	}

	summary := models.Summarize(results, threshold)
	table := output.NewTable(
		"Complexity Analysis",
		[]string{"File", "Function", "Line", "Complexity", "Severity"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", summary.TotalFiles),
			fmt.Sprintf("Functions: %d", summary.TotalFunctions),
			fmt.Sprintf("Avg: %.2f", summary.AvgComplexity),
			fmt.Sprintf("Max: %d", summary.MaxComplexity),
			fmt.Sprintf("Low/Medium/High: %d/%d/%d", summary.LowCount, summary.MediumCount, summary.HighCount),
		},
		struct {
			Files   []models.FileResult `json:"files"`
			Summary models.Summary      `json:"summary"`
		}{results, summary},
	)

	if err := formatter.Output(table); err != nil {
		return err
	}

	if c.Bool("fail-on-high") && highCount > 0 {
		return cli.Exit(fmt.Sprintf("%d function(s) exceed the high-severity threshold", highCount), 2)
	}
	return nil
}
