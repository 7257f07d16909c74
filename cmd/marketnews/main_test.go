package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestIngestCommandFlags(t *testing.T) {
	var captured struct {
		symbols  []string
		days     int
		maxPages int
	}

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name: "ingest",
				Action: func(c *cli.Context) error {
					captured.symbols = c.StringSlice("symbols")
					captured.days = c.Int("days")
					captured.maxPages = c.Int("max-pages")
					return nil
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "symbols", Required: true},
					&cli.IntFlag{Name: "days", Value: 1},
					&cli.IntFlag{Name: "max-pages", Value: 1},
				},
			},
		},
	}

	err := app.Run([]string{"marketnews", "ingest", "--symbols", "AAPL", "--symbols", "MSFT", "--days", "3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, captured.symbols)
	assert.Equal(t, 3, captured.days)
	assert.Equal(t, 1, captured.maxPages)
}

func TestIngestCommandRequiresSymbols(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: func(c *cli.Context) error { return nil },
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "symbols", Required: true},
				},
			},
		},
	}

	err := app.Run([]string{"marketnews", "ingest"})
	require.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	makeContext := func(level string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		return cli.NewContext(cli.NewApp(), set, nil)
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
			assert.NoError(t, setupLogger(makeContext(level)), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		require.Error(t, setupLogger(makeContext("verbose")))
	})
}
