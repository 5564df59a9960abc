package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/profdir"
	"github.com/fwojciec/profdir/fs"
	"github.com/fwojciec/profdir/gemini"
	"github.com/fwojciec/profdir/goquery"
	"github.com/fwojciec/profdir/rod"
	"github.com/fwojciec/profdir/scrape"
	profslog "github.com/fwojciec/profdir/slog"
	"github.com/fwojciec/profdir/sqlite"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	// A .env file is optional; process environment takes effect either way.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Audit file path for the per-run JSON snapshot.
	AuditPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Service for end-to-end testing.
	ProfessorService profdir.ProfessorService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:    defaultDBPath(),
		AuditPath: defaultAuditPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("profdir"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'profdir --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// The API key is the only configuration that aborts before any network
	// or database work.
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set PROFDIR_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.ProfessorService = sqlite.NewProfessorService(m.DB, logger)
	deps.DB = m.DB
	deps.Professors = m.ProfessorService

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	fetcher, err := NewPageFetcher(cli.NoBrowser)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or pass --no-browser for static sites")
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer fetcher.Close()

	extractor := profslog.NewLoggingExtractor(
		gemini.NewExtractor(client, goquery.NewCleaner()),
		logger,
	)

	concurrency := 0
	maxProfiles := 0
	if cmd == "scrape" {
		concurrency = cli.Scrape.Concurrency
		maxProfiles = cli.Scrape.MaxProfiles
	}

	deps.Pipeline = &scrape.Pipeline{
		Fetcher:     rod.NewLoggingFetcher(fetcher, logger),
		Extractor:   extractor,
		Professors:  m.ProfessorService,
		Audit:       fs.NewAuditWriter(m.AuditPath),
		Limiter:     scrape.NewDomainLimiter(1.0),
		Logger:      logger,
		Concurrency: concurrency,
		MaxProfiles: maxProfiles,
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("PROFDIR_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "profdir.db"
	}
	dir := filepath.Join(home, ".profdir")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "profdir.db")
}

func defaultAuditPath() string {
	if path := os.Getenv("PROFDIR_AUDIT"); path != "" {
		return path
	}
	return "professors_data.json"
}
