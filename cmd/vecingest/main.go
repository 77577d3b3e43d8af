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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/vecingest"
	"github.com/poiesic/vecingest/config"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg).RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}

// newApp builds the CLI. Flag defaults come from cfg.
func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "vecingest",
		Usage: "Embed media collections into a vector store and serve the embedding model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "media",
				Usage:     "Ingest generated images and videos from JSON export files",
				ArgsUsage: "<json-pattern>",
				Action:    mediaCommand(false),
				Flags:     join(storeFlags(cfg), dimensionFlag(cfg), remoteFlags(cfg), runFlags(cfg), generationFlags()),
			},
			{
				Name:      "videos",
				Usage:     "Ingest only the generated videos from JSON export files",
				ArgsUsage: "<json-pattern>",
				Action:    mediaCommand(true),
				Flags:     join(storeFlags(cfg), dimensionFlag(cfg), remoteFlags(cfg), runFlags(cfg), generationFlags()),
			},
			{
				Name:   "pexels",
				Usage:  "Ingest short stock videos from a Pexels dataset export",
				Action: pexelsCommand,
				Flags:  join(storeFlags(cfg), dimensionFlag(cfg), remoteFlags(cfg), runFlags(cfg), pexelsFlags()),
			},
			{
				Name:   "laion",
				Usage:  "Ingest a sample of aesthetic images from a LAION dataset export",
				Action: laionCommand,
				Flags:  join(storeFlags(cfg), dimensionFlag(cfg), remoteFlags(cfg), runFlags(cfg), laionFlags()),
			},
			{
				Name:   "text",
				Usage:  "Ingest plain text captions, one per line",
				Action: textCommand,
				Flags:  join(storeFlags(cfg), dimensionFlag(cfg), remoteFlags(cfg), runFlags(cfg), textFlags()),
			},
			{
				Name:   "serve",
				Usage:  "Serve the embedding model over HTTP",
				Action: serveCommand,
				Flags:  serveFlags(cfg),
			},
			{
				Name:      "search",
				Usage:     "Find stored records similar to a query",
				ArgsUsage: "[query text]",
				Action:    searchCommand,
				Flags:     join(storeFlags(cfg), remoteFlags(cfg), searchFlags()),
			},
			{
				Name:   "stats",
				Usage:  "Show what the store holds",
				Action: statsCommand,
				Flags:  storeFlags(cfg),
			},
		},
	}
}

func join(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func storeFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   cfg.Store,
		},
		&cli.StringFlag{
			Name:  "store-key",
			Usage: "Encryption key for the store (16, 24 or 32 bytes)",
			Value: cfg.StoreKey,
		},
	}
}

func dimensionFlag(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding dimension",
			Value: cfg.Dimension,
		},
	}
}

func remoteFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "fal-endpoint",
			Usage: "Embedding endpoint URL",
			Value: cfg.Endpoint,
		},
		&cli.StringFlag{
			Name:  "fal-key",
			Usage: "Embedding endpoint API key",
			Value: cfg.APIKey,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout for a single embedding call",
			Value: cfg.Timeout,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum attempts per embedding call",
			Value: cfg.MaxRetries,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: cfg.RetryDelay,
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// openDatabase opens the store named by the store flags. Without a
// dimension flag the store keeps the dimension it was created with. The
// remote client is configured when the command carries an endpoint.
func openDatabase(c *cli.Context) (*vecingest.Database, error) {
	dbPath := c.String("store")
	if dbPath == "" {
		return nil, fmt.Errorf("%w: VECINGEST_STORE or --store", config.ErrMissingRequired)
	}

	if err := config.ValidateStoreKey(c.String("store-key")); err != nil {
		return nil, err
	}

	opts := []vecingest.DatabaseOption{
		vecingest.WithDimension(c.Int("dimension")),
		vecingest.WithLogger(slog.Default()),
	}
	if key := c.String("store-key"); key != "" {
		opts = append(opts, vecingest.WithEncryptionKey([]byte(key)))
	}
	if endpoint := c.String("fal-endpoint"); endpoint != "" {
		opts = append(opts,
			vecingest.WithEndpoint(endpoint, c.String("fal-key")),
			vecingest.WithTimeout(c.Duration("timeout")),
			vecingest.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		)
	}

	db, err := vecingest.NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// requireRemote checks that the command can authenticate to the endpoint.
func requireRemote(c *cli.Context) error {
	settings := config.Config{Endpoint: c.String("fal-endpoint"), APIKey: c.String("fal-key")}
	if err := settings.ValidateRemote(); err != nil {
		return fmt.Errorf("%w (or --fal-endpoint/--fal-key)", err)
	}
	return nil
}
