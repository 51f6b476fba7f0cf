package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/models"
	"github.com/marchview/cyclomet/pkg/session"
	"github.com/marchview/cyclomet/pkg/watch"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-analyze files as they change",
		ArgsUsage: "[path]",
		Action:    runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := "."
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}

	registry := buildRegistry(cfg)
	tracker := session.NewTracker(registry)
	threshold := cfg.Threshold.Complexity

	// The watcher plays the editing host: every settled change bumps the
	// document version and feeds the session tracker.
	var mu sync.Mutex
	versions := make(map[string]int)

	watcher, err := watch.NewWatcher(path, cfg)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	watcher.SetCallback(func(changed string) {
		src, err := os.ReadFile(changed)
		if err != nil {
			return
		}

		mu.Lock()
		versions[changed]++
		version := versions[changed]
		mu.Unlock()

		results, err := tracker.Analyze(context.Background(), session.Request{
			URI:      changed,
			Language: analyzer.DetectLanguage(changed),
			Text:     src,
			Version:  version,
			Cursor:   session.NoCursor,
		})
		if err != nil {
			color.Red("%s: %v", changed, err)
			return
		}

		color.Yellow("%s (v%d)", changed, version)
		for _, fn := range results {
			severity := models.Classify(fn.Complexity, threshold)
			line := fmt.Sprintf("  %-40s line %-5d complexity %-4d %s", fn.Name, fn.Line, fn.Complexity, severity)
			switch severity {
			case models.SeverityHigh:
				color.Red("%s", line)
			case models.SeverityMedium:
				color.Yellow("%s", line)
			default:
				fmt.Println(line)
			}
		}
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	if err := watcher.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
