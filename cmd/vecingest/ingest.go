// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/poiesic/vecingest/config"
	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/ingestion"
	"github.com/poiesic/vecingest/media"
	"github.com/poiesic/vecingest/sources"
	"github.com/urfave/cli/v2"
)

// maxListedErrors bounds the per-item errors printed after a run.
const maxListedErrors = 10

func runFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum in-flight embedding calls",
			Value: cfg.Concurrency,
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of records written to the store at once",
			Value: cfg.BatchSize,
		},
		&cli.IntFlag{
			Name:  "rate-limit",
			Usage: "Requests per minute (0 disables the limit)",
			Value: cfg.RateLimit,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Process at most N items after filtering (0 for all)",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N items",
			Value: 1,
		},
	}
}

func generationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "platform",
			Usage: "Keep only rows generated on this platform (fal, vertex_ai)",
		},
	}
}

func pexelsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Pexels export (JSON array or JSON lines)",
			Required: true,
		},
		&cli.Float64Flag{
			Name:  "duration-limit",
			Usage: "Maximum video duration in seconds",
			Value: sources.DefaultDurationLimit,
		},
		&cli.BoolFlag{
			Name:  "no-randomize",
			Usage: "Keep the export order instead of shuffling",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for the shuffle (0 picks a random order)",
		},
		&cli.BoolFlag{
			Name:  "preflight",
			Usage: "Check each video URL with a HEAD request before embedding",
			Value: true,
		},
	}
}

func laionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "LAION export (JSON array or JSON lines)",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "num-images",
			Usage: "Number of new images to process",
			Value: 1000,
		},
		&cli.Float64Flag{
			Name:  "min-score",
			Usage: "Minimum aesthetic score",
			Value: sources.DefaultMinAestheticScore,
		},
		&cli.IntFlag{
			Name:  "oversample",
			Usage: "Candidates drawn per requested image before dropping known ones",
			Value: sources.DefaultOversample,
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for the sample (0 picks a random sample)",
		},
		&cli.BoolFlag{
			Name:  "preflight",
			Usage: "Check each image URL with a HEAD request before embedding",
			Value: true,
		},
	}
}

func textFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Text file with one caption per line (built-in samples if unset)",
		},
	}
}

func mediaCommand(videosOnly bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		pattern := c.Args().First()
		if pattern == "" {
			return fmt.Errorf("json pattern is required")
		}
		src := &sources.GenerationSource{
			Pattern:    pattern,
			Platform:   c.String("platform"),
			VideosOnly: videosOnly,
			Limit:      c.Int("limit"),
			Logger:     slog.Default(),
		}
		return runIngest(c, src, nil)
	}
}

func pexelsCommand(c *cli.Context) error {
	src := sources.NewPexelsSource(c.String("file"))
	src.DurationLimit = c.Float64("duration-limit")
	src.Shuffle = !c.Bool("no-randomize")
	src.Limit = c.Int("limit")
	src.Rand = seeded(c.Uint64("seed"))
	src.Logger = slog.Default()
	return runIngest(c, src, preflight(c))
}

func laionCommand(c *cli.Context) error {
	count := c.Int("num-images")
	if limit := c.Int("limit"); limit > 0 && limit < count {
		count = limit
	}
	src := sources.NewLAIONSource(c.String("file"), count)
	src.MinScore = c.Float64("min-score")
	src.Oversample = c.Int("oversample")
	src.Rand = seeded(c.Uint64("seed"))
	src.Logger = slog.Default()
	return runIngest(c, src, preflight(c))
}

func textCommand(c *cli.Context) error {
	src, err := sources.NewTextSource(c.String("file"))
	if err != nil {
		return err
	}
	src.Limit = c.Int("limit")
	src.Logger = slog.Default()
	return runIngest(c, src, nil)
}

func seeded(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, seed))
}

func preflight(c *cli.Context) *media.Prober {
	if !c.Bool("preflight") {
		return nil
	}
	return media.NewProber(nil, media.DefaultProbeTimeout, slog.Default())
}

// ingestSettings collects the effective store and run flags.
func ingestSettings(c *cli.Context) *config.Config {
	return &config.Config{
		Store:       c.String("store"),
		StoreKey:    c.String("store-key"),
		Dimension:   c.Int("dimension"),
		Concurrency: c.Int("concurrency"),
		BatchSize:   c.Int("batch-size"),
		RateLimit:   c.Int("rate-limit"),
		MaxRetries:  c.Int("max-retries"),
	}
}

// runIngest runs one pipeline over src and prints the run summary.
func runIngest(c *cli.Context, src ingestion.Source, prober *media.Prober) error {
	if err := requireRemote(c); err != nil {
		return err
	}
	if err := ingestSettings(c).Validate(); err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// LAION sampling skips ids the store already holds.
	if laion, ok := src.(*sources.LAIONSource); ok {
		laion.Known = db.Repository()
	}

	opts := []ingestion.Option{
		ingestion.WithConcurrency(c.Int("concurrency")),
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRateLimit(c.Int("rate-limit")),
		ingestion.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
	}
	if prober != nil {
		opts = append(opts, ingestion.WithPreflight(prober.Check))
	}
	pipeline, err := db.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Store: %s\n", c.String("store"))
	fmt.Fprintf(c.App.ErrWriter, "Endpoint: %s\n", c.String("fal-endpoint"))
	fmt.Fprintf(c.App.ErrWriter, "Source: %s\n\n", src.Namespace())

	result, err := pipeline.Run(c.Context, src)
	printSummary(c.App.Writer, result)
	if prober != nil {
		if n := prober.ConsecutiveRateLimits(); n > 0 {
			slog.Warn("media host is rate limiting preflight checks", "consecutive", n)
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, result core.RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Success: %d\n", result.Success)
	fmt.Fprintf(w, "Failed:  %d\n", result.Failed)
	fmt.Fprintf(w, "Skipped: %d\n", result.Skipped)
	fmt.Fprintf(w, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Rate: %.2f items/s\n", result.Rate())

	for i, e := range result.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(w, "  ... and %d more\n", len(result.Errors)-maxListedErrors)
			break
		}
		fmt.Fprintf(w, "  %s (attempts %d): %s\n", e.ID, e.Attempts, e.Message)
	}
}
