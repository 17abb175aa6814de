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
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/brandmatch"
	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "brandmatch",
		Usage: "Semantic brand search over an embedded catalog",
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
				Name:   "ingest",
				Usage:  "Embed a brand catalog and upload it to the index",
				Action: ingestCommand,
				Flags: withCommonFlags(
					&cli.StringFlag{
						Name:     "catalog",
						Aliases:  []string{"c"},
						Usage:    "Path to the brand catalog (JSON array or CSV)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to upload in each batch",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum upload attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Delay between upload attempts",
						Value: 5 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "exponential-backoff",
						Usage: "Double the retry delay after each failed attempt",
					},
					&cli.IntFlag{
						Name:  "embed-batch-size",
						Usage: "Number of texts sent to the embedding model per request",
						Value: ingestion.DefaultEmbedBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding requests (0 uses half the CPUs)",
					},
					&cli.DurationFlag{
						Name:  "ready-wait",
						Usage: "Wait after creating a new index",
						Value: brandmatch.DefaultReadyWait,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Find brands matching a description",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: withCommonFlags(
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict to a category",
						Value: "All",
					},
					&cli.Int64Flag{
						Name:  "min-followers",
						Usage: "Minimum follower count (0 for any)",
					},
					&cli.StringFlag{
						Name:  "region",
						Usage: "Restrict to a region",
						Value: "All",
					},
					&cli.IntFlag{
						Name:  "founded-before",
						Usage: "Latest founding year (0 for any)",
					},
					&cli.StringFlag{
						Name:  "price-level",
						Usage: "Restrict to a price level",
						Value: "All",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of matches to request from the index",
						Value:   5,
					},
					&cli.StringFlag{
						Name:  "vocabulary",
						Usage: "YAML file listing the accepted filter values",
					},
				),
			},
			{
				Name:   "describe",
				Usage:  "Show index statistics",
				Action: describeCommand,
				Flags:  withCommonFlags(),
			},
			{
				Name:   "embed",
				Usage:  "Embed a catalog and write it with its vectors as CSV",
				Action: embedCommand,
				Flags: withCommonFlags(
					&cli.StringFlag{
						Name:     "catalog",
						Aliases:  []string{"c"},
						Usage:    "Path to the brand catalog (JSON array or CSV)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output CSV path",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding requests (0 uses half the CPUs)",
					},
				),
			},
		},
	}
}

// withCommonFlags appends the index and embedding service flags shared by
// every command.
func withCommonFlags(flags ...cli.Flag) []cli.Flag {
	defaults := ai.DefaultConfig()
	return append(flags,
		&cli.StringFlag{
			Name:  "index",
			Usage: "Index backend (badger, qdrant)",
			Value: "badger",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "brandmatch.db",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Index collection name",
			Value: "brands",
		},
		&cli.StringFlag{
			Name:  "qdrant-host",
			Usage: "Qdrant server host",
			Value: "localhost",
		},
		&cli.IntFlag{
			Name:  "qdrant-port",
			Usage: "Qdrant gRPC port",
			Value: 6334,
		},
		&cli.StringFlag{
			Name:    "qdrant-api-key",
			Usage:   "Qdrant API key",
			EnvVars: []string{"QDRANT_API_KEY"},
		},
		&cli.BoolFlag{
			Name:  "qdrant-tls",
			Usage: "Connect to Qdrant over TLS",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: defaults.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector length",
			Value: defaults.Dimension,
		},
	)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
