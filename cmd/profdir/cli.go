package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/profdir"
	"github.com/fwojciec/profdir/scrape"
	"github.com/fwojciec/profdir/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	DB         *sqlite.DB
	Professors profdir.ProfessorService
	Pipeline   *scrape.Pipeline
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	NoBrowser bool `help:"Fetch pages with plain HTTP instead of a headless browser (static directories only)"`

	Scrape ScrapeCmd `cmd:"" help:"Scrape faculty directories and store professor records"`
	Serve  ServeCmd  `cmd:"" help:"Run an HTTP server that triggers scrapes on request"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URL         []string `arg:"" help:"Faculty directory URL (repeatable)"`
	University  string   `short:"u" help:"University name used when profiles omit it"`
	Department  string   `short:"d" help:"Department name used when profiles omit it"`
	MaxProfiles int      `short:"m" default:"50" help:"Profile links processed per directory"`
	Concurrency int      `short:"c" default:"5" help:"Concurrent profile fetch limit"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8080" help:"Listen address"`
}
