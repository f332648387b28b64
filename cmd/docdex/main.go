package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/crawl"
	"github.com/fwojciec/docdex/extract"
	"github.com/fwojciec/docdex/fs"
	"github.com/fwojciec/docdex/gemini"
	dochttp "github.com/fwojciec/docdex/http"
	"github.com/fwojciec/docdex/match"
	docslog "github.com/fwojciec/docdex/slog"
	"github.com/fwojciec/docdex/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path and blob directory. Set before calling Run().
	DBPath  string
	BlobDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	DocumentService docdex.DocumentService
	FrontierService docdex.FrontierService
	TextService     docdex.TextService
	IndexService    docdex.IndexService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:  defaultDBPath(),
		BlobDir: defaultBlobDir(),
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
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docdex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Vars{"default_user_agent": docdex.DefaultUserAgent},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docdex --help' to see available commands")
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

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel(cli.Verbose),
	}))

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.DocumentService = sqlite.NewDocumentService(m.DB)
	m.FrontierService = sqlite.NewFrontierService(m.DB)
	m.TextService = sqlite.NewTextService(m.DB)
	m.IndexService = sqlite.NewIndexService(m.DB)
	embeddings := sqlite.NewEmbeddingService(m.DB)

	deps.DB = m.DB
	deps.Documents = m.DocumentService
	deps.Frontier = m.FrontierService
	deps.Texts = m.TextService
	deps.Index = m.IndexService
	deps.Blobs = fs.NewBlobStore(m.BlobDir)

	if cmd == "crawl" {
		policy := cli.Crawl.Policy()

		opts := []dochttp.Option{
			dochttp.WithLimiter(crawl.NewHostLimiter(policy.RequestInterval)),
			dochttp.WithRetryDelays(policy.RetryDelays),
		}
		if policy.RespectRobots {
			opts = append(opts, dochttp.WithRobots(dochttp.NewRobotsCache(policy.UserAgent)))
		}
		var fetcher docdex.Fetcher = dochttp.NewFetcher(policy.UserAgent, opts...)
		index := deps.Index
		if cli.Verbose {
			fetcher = docslog.NewLoggingFetcher(fetcher, logger)
			index = docslog.NewLoggingIndex(index, logger)
		}

		deps.Coordinator = &crawl.Coordinator{
			Policy:       policy,
			Fetcher:      fetcher,
			Frontier:     deps.Frontier,
			Documents:    deps.Documents,
			Texts:        deps.Texts,
			Index:        index,
			Extractors:   extract.DefaultRegistry(policy.OCREnabled),
			Blobs:        deps.Blobs,
			DetectFormat: extract.DetectFormat,
		}

		if policy.SemanticEnabled {
			client, err := geminiClient(ctx, stderr)
			if err != nil {
				return err
			}
			deps.Coordinator.Embedder = gemini.NewEmbedder(client)
			deps.Coordinator.Embeddings = embeddings
		}
	}

	if cmd == "search" {
		engine := &match.Engine{
			Documents:  deps.Documents,
			Texts:      deps.Texts,
			Index:      deps.Index,
			Embeddings: embeddings,
		}
		if cli.Search.Mode == string(docdex.ModeSemantic) {
			client, err := geminiClient(ctx, stderr)
			if err != nil {
				return err
			}
			engine.Embedder = gemini.NewEmbedder(client)
		}
		deps.Matcher = engine
	}

	return kongCtx.Run(deps)
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// geminiClient connects to the Gemini API for embedding computation.
func geminiClient(ctx context.Context, stderr io.Writer) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, docdex.Errorf(docdex.EUNAVAILABLE, "GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	return client, nil
}

func defaultDBPath() string {
	if path := os.Getenv("DOCDEX_DB"); path != "" {
		return path
	}
	return filepath.Join(dataDir(), "docdex.db")
}

func defaultBlobDir() string {
	if path := os.Getenv("DOCDEX_BLOBS"); path != "" {
		return path
	}
	return filepath.Join(dataDir(), "blobs")
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docdex"
	}
	dir := filepath.Join(home, ".docdex")
	_ = os.MkdirAll(dir, 0755)
	return dir
}
