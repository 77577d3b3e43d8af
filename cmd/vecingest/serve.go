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
	"log/slog"
	"time"

	"github.com/poiesic/vecingest/ai"
	"github.com/poiesic/vecingest/ai/mock"
	"github.com/poiesic/vecingest/ai/openai"
	"github.com/poiesic/vecingest/config"
	"github.com/poiesic/vecingest/media"
	"github.com/poiesic/vecingest/server"
	"github.com/poiesic/vecingest/workerpool"
	"github.com/urfave/cli/v2"
)

const shutdownGrace = 30 * time.Second

func serveFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Usage: "Address to listen on",
			Value: cfg.ListenAddr,
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "Require \"Authorization: Key <api-key>\" on every request",
		},
		&cli.StringFlag{
			Name:  "model-host",
			Usage: "Model service host URL",
			Value: cfg.ModelHost,
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "Model name",
			Value: cfg.ModelName,
		},
		&cli.StringFlag{
			Name:  "model-token",
			Usage: "Model service API token",
			Value: cfg.ModelToken,
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding dimension (0 skips the check)",
			Value: cfg.Dimension,
		},
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "Serve deterministic vectors instead of calling a model",
		},
		&cli.IntFlag{
			Name:  "world-size",
			Usage: "Number of workers the model is sharded across",
			Value: cfg.WorldSize,
		},
		&cli.StringFlag{
			Name:  "master-addr",
			Usage: "Rendezvous host shared by the workers",
			Value: cfg.MasterAddr,
		},
		&cli.IntFlag{
			Name:  "master-port",
			Usage: "Rendezvous port shared by the workers",
			Value: cfg.MasterPort,
		},
		&cli.DurationFlag{
			Name:  "ready-delay",
			Usage: "Settle time after the workers have loaded",
			Value: workerpool.DefaultReadyDelay,
		},
		&cli.StringFlag{
			Name:  "download-dir",
			Usage: "Directory for downloaded media (system temp dir if unset)",
		},
	}
}

func serveCommand(c *cli.Context) error {
	ctx := c.Context
	logger := slog.Default()

	modelConfig := ai.NewConfig(
		ai.WithHost(c.String("model-host")),
		ai.WithModel(c.String("model")),
		ai.WithToken(c.String("model-token")),
		ai.WithDimension(c.Int("dimension")),
		ai.WithWorldSize(c.Int("world-size")),
	)
	if err := modelConfig.Validate(); err != nil {
		return fmt.Errorf("invalid model configuration: %w", err)
	}

	factory := openai.Factory(modelConfig)
	if c.Bool("mock") {
		factory = mock.Factory(modelConfig.Dimension)
	}

	pool, err := workerpool.New(factory,
		workerpool.WithWorldSize(modelConfig.WorldSize),
		workerpool.WithMasterAddr(c.String("master-addr"), c.Int("master-port")),
		workerpool.WithReadyDelay(c.Duration("ready-delay")),
		workerpool.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down workers", "err", err)
		}
	}()

	fetchOpts := []media.FetchOption{media.WithFetchLogger(logger)}
	if dir := c.String("download-dir"); dir != "" {
		fetchOpts = append(fetchOpts, media.WithDir(dir))
	}
	fetcher, err := media.NewFetcher(fetchOpts...)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(c.String("listen"), pool, fetcher,
		server.WithAPIKey(c.String("api-key")),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := srv.Warmup(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
