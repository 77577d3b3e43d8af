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
	"strings"
	"time"

	"github.com/poiesic/vecingest/search"
	"github.com/urfave/cli/v2"
)

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "image-url",
			Usage: "Search with an image instead of text",
		},
		&cli.StringFlag{
			Name:  "video-url",
			Usage: "Search with a video instead of text",
		},
		&cli.IntFlag{
			Name:    "max-hits",
			Aliases: []string{"n"},
			Usage:   "Maximum number of results",
			Value:   10,
		},
		&cli.Float64Flag{
			Name:  "min-score",
			Usage: "Minimum cosine similarity",
			Value: float64(search.DefaultMinSimilarity),
		},
		&cli.StringFlag{
			Name:  "namespace",
			Usage: "Only return ids in this namespace (gen, pexels, laion, text)",
		},
	}
}

func searchCommand(c *cli.Context) error {
	query := search.Query{
		Text:     strings.Join(c.Args().Slice(), " "),
		ImageURL: c.String("image-url"),
		VideoURL: c.String("video-url"),
	}
	if err := requireRemote(c); err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(
		search.WithMinSimilarity(float32(c.Float64("min-score"))),
		search.WithNamespace(c.String("namespace")),
	)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FindSimilarWithMonitor(c.Context, query, c.Int("max-hits"), &search.LogMonitor{})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := c.App.Writer
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %.4f  %s  %s\n", i+1, r.Score, r.Record.ID, describe(r.Record.Text, r.Record.ImageURL, r.Record.VideoURL))
	}
	return nil
}

// describe picks the most useful field of a record for display.
func describe(text, imageURL, videoURL string) string {
	switch {
	case videoURL != "":
		return videoURL
	case imageURL != "":
		return imageURL
	case len(text) > 80:
		return text[:77] + "..."
	default:
		return text
	}
}

func statsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Store:     %s\n", c.String("store"))
	fmt.Fprintf(w, "Dimension: %d\n", stats.Dimension)
	fmt.Fprintf(w, "Created:   %s\n", stats.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Records:   %d\n", stats.Total)
	for _, ns := range stats.Namespaces() {
		fmt.Fprintf(w, "  %-8s %d\n", ns, stats.ByNamespace[ns])
	}
	return nil
}
