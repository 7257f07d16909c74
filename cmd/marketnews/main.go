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
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	marketnews "github.com/poiesic/marketnews"
	"github.com/poiesic/marketnews/config"
	"github.com/poiesic/marketnews/index"
	"github.com/poiesic/marketnews/pipeline"
	"github.com/poiesic/marketnews/retrieve"
)

func main() {
	app := &cli.App{
		Name:  "marketnews",
		Usage: "Financial news ingestion and semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
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
				Usage:  "Fetch, summarize, store and index news for the given symbols",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "symbols",
						Aliases:  []string{"s"},
						Usage:    "Stock symbols to query, e.g. AAPL GOOGL MSFT",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Number of days in the past to fetch data for. 1 means today only",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "after",
						Usage: "Fetch articles published after this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "before",
						Usage: "Fetch articles published before this date (YYYY-MM-DD)",
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Number of pages to fetch for each day",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "start-page",
						Usage: "First page number to request",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Watchdog timeout for the whole run (0 disables)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Query the semantic index",
				Action:    searchCommand,
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "entity",
						Usage: "Restrict results to one entity name",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Dump stored articles as JSON",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (defaults to stdout)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum articles to export (0 means all)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show when the store was last updated",
				Action: statusCommand,
			},
			{
				Name:  "blacklist",
				Usage: "Inspect or clear the persisted scrape blacklist",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "List blacklisted URLs",
						Action: blacklistShowCommand,
					},
					{
						Name:   "clear",
						Usage:  "Remove every blacklist entry",
						Action: blacklistClearCommand,
					},
				},
			},
			{
				Name:   "delete",
				Usage:  "Remove articles from the store and the index",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "uuid",
						Usage: "Delete the article with this UUID",
					},
					&cli.StringFlag{
						Name:  "match-description",
						Usage: "Delete every article whose description contains this substring",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the vector index from the durable store",
				Action: reindexCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
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

func newService(c *cli.Context) (*marketnews.Service, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return marketnews.NewService(cfg)
}

func ingestCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Ingest(context.Background(), pipeline.RunOptions{
		Symbols:   c.StringSlice("symbols"),
		Days:      c.Int("days"),
		After:     c.String("after"),
		Before:    c.String("before"),
		MaxPages:  c.Int("max-pages"),
		StartPage: c.Int("start-page"),
		Timeout:   c.Duration("timeout"),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Gathered %d articles, inserted %d (%d duplicates), indexed %d documents in %v\n",
		stats.Gather.Gathered, stats.Inserted, stats.StoreDuplicates,
		stats.Index.Added, stats.Duration.Round(time.Second))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	topN := c.Int("top")

	var results []retrieve.Result
	if entity := c.String("entity"); entity != "" {
		results, err = svc.SearchEntity(ctx, query, entity, topN)
	} else {
		results, err = svc.Search(ctx, query, topN)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, hit := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, hit.RerankerScore, hit.Metadata[index.MetaTitle])
		if url := hit.Metadata[index.MetaURL]; url != "" {
			fmt.Printf("   %s\n", url)
		}
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	count, err := svc.Export(context.Background(), out, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d articles\n", count)
	return nil
}

func statusCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	last, err := svc.LastUpdated(context.Background())
	if err != nil {
		return err
	}
	if last == "" {
		fmt.Println("The store has never been updated.")
		return nil
	}
	fmt.Printf("Last updated: %s\n", last)
	return nil
}

func blacklistShowCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	urls, err := svc.Articles().Blacklist(context.Background())
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Println("The blacklist is empty.")
		return nil
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	return nil
}

func blacklistClearCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.ClearBlacklist(context.Background()); err != nil {
		return err
	}
	fmt.Println("Blacklist cleared.")
	return nil
}

func deleteCommand(c *cli.Context) error {
	uuid := c.String("uuid")
	match := c.String("match-description")
	if uuid == "" && match == "" {
		return fmt.Errorf("one of --uuid or --match-description is required")
	}
	if uuid != "" && match != "" {
		return fmt.Errorf("--uuid and --match-description are mutually exclusive")
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	if uuid != "" {
		rows, docs, err := svc.DeleteArticle(ctx, uuid)
		if err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Printf("Deleted %d article(s) and %d index document(s)\n", rows, docs)
		return nil
	}

	rows, err := svc.DeleteByDescriptionMatch(ctx, match)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted %d article(s)\n", rows)
	return nil
}

func reindexCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Reindex(context.Background(), os.Stderr); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}
