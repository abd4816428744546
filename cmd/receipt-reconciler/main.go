package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-reconciler/internal/export"
	"github.com/zombor/receipt-reconciler/internal/receipt"
	"github.com/zombor/receipt-reconciler/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type config struct {
	scannerType string
	geminiKey   string
	geminiModel string
	openaiKey   string
	openaiModel string
	openaiURL   string
	ollamaURL   string
	ollamaModel string
	cachePath   string
	extraction  string
	xlsxPath    string
	full        bool
	serve       bool
	port        int
	authUser    string
	authPass    string
	concurrency int
	logLevel    string
	showVersion bool
	inputs      []string
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		writeError(os.Stdout, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := ff.NewFlagSet("receipt-reconciler")
	var (
		scannerType = fs.StringLong("scanner", "openai", "Scanner type: 'openai', 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		openaiKey   = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel = fs.StringLong("openai-model", "gpt-4o", "OpenAI vision model name")
		openaiURL   = fs.StringLong("openai-url", "", "OpenAI compatible API base URL (optional)")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		cachePath   = fs.StringLong("cache", "", "Scan cache database path (optional)")
		extraction  = fs.StringLong("extraction", "", "Reconcile a saved extraction JSON file instead of scanning")
		xlsxPath    = fs.StringLong("xlsx", "", "Also write an XLSX report to this path")
		full        = fs.BoolLong("full", "Print the full result with pricing and diagnostics instead of the receipt")
		serve       = fs.BoolLong("serve", "Run the HTTP server")
		port        = fs.IntLong("port", 8080, "HTTP server port")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		concurrency = fs.IntLong("concurrency", 4, "Receipts scanned in parallel")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion = fs.BoolLong("version", "Show version information")
		_           = fs.StringLong("config", "", "Config file (optional)")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("RECEIPT_RECONCILER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &config{
		scannerType: *scannerType,
		geminiKey:   *geminiKey,
		geminiModel: *geminiModel,
		openaiKey:   *openaiKey,
		openaiModel: *openaiModel,
		openaiURL:   *openaiURL,
		ollamaURL:   *ollamaURL,
		ollamaModel: *ollamaModel,
		cachePath:   *cachePath,
		extraction:  *extraction,
		xlsxPath:    *xlsxPath,
		full:        *full,
		serve:       *serve,
		port:        *port,
		authUser:    *authUser,
		authPass:    *authPass,
		concurrency: *concurrency,
		logLevel:    *logLevel,
		showVersion: *showVersion,
		inputs:      fs.GetArgs(),
	}
	if cfg.geminiKey == "" {
		cfg.geminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.openaiKey == "" {
		cfg.openaiKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if cfg.showVersion {
		fmt.Fprintln(stdout, version)
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.extraction != "" {
		service := receipt.NewService(nil, logger)
		return reconcileFile(ctx, service, cfg, stdout)
	}

	if !cfg.serve && len(cfg.inputs) == 0 {
		return errors.New("no receipt images given")
	}

	scanner, err := newScanner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer scanner.Close()

	service := receipt.NewService(scanner, logger)

	if cfg.serve {
		basicAuth := receipt.BasicAuth{
			Username: cfg.authUser,
			Password: cfg.authPass,
		}
		if cfg.authUser != "" || cfg.authPass != "" {
			logger.Info("Basic auth enabled", "user", cfg.authUser)
		}
		server := receipt.NewServer(service, basicAuth, logger)
		return server.Run(ctx, fmt.Sprintf(":%d", cfg.port))
	}

	results, scanErr := service.ScanFiles(ctx, cfg.inputs, cfg.concurrency)
	if err := writeResults(stdout, cfg, results); err != nil {
		return err
	}
	return scanErr
}

func reconcileFile(ctx context.Context, service *receipt.Service, cfg *config, stdout io.Writer) error {
	data, err := os.ReadFile(cfg.extraction)
	if err != nil {
		return fmt.Errorf("reading extraction: %w", err)
	}

	raw, err := scanning.ParseExtraction(string(data))
	if err != nil {
		return err
	}

	result, err := service.ReconcileExtraction(ctx, filepath.Base(cfg.extraction), raw)
	if err != nil {
		return err
	}
	return writeResults(stdout, cfg, []*receipt.Result{result})
}

func newScanner(ctx context.Context, cfg *config, logger *slog.Logger) (scanning.Scanner, error) {
	var (
		scanner scanning.Scanner
		err     error
	)

	switch cfg.scannerType {
	case "openai":
		if cfg.openaiKey == "" {
			return nil, errors.New("OpenAI API key is required. Set --openai-key flag or OPENAI_API_KEY environment variable")
		}
		logger.Info("Initializing OpenAI scanner...", "model", cfg.openaiModel)
		scanner, err = scanning.NewOpenAI(cfg.openaiKey, cfg.openaiURL, cfg.openaiModel)
	case "gemini":
		if cfg.geminiKey == "" {
			return nil, errors.New("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
		}
		logger.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
		scanner, err = scanning.NewGemini(ctx, cfg.geminiKey, cfg.geminiModel)
	case "ollama":
		logger.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		scanner, err = scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner type %q: valid types are openai, gemini or ollama", cfg.scannerType)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s scanner: %w", cfg.scannerType, err)
	}

	if cfg.cachePath == "" {
		return scanner, nil
	}

	logger.Info("Initializing scan cache...", "path", cfg.cachePath)
	cache, err := scanning.NewBoltCache(cfg.cachePath)
	if err != nil {
		scanner.Close()
		return nil, fmt.Errorf("initializing scan cache: %w", err)
	}
	return scanning.NewCachingScanner(scanner, cache, logger), nil
}

// writeResults prints each reconciled receipt as one JSON line, skipping
// receipts that failed. Callers read the last line of stdout. With --full the
// whole result is printed, a single result as an object and several as an array.
func writeResults(stdout io.Writer, cfg *config, results []*receipt.Result) error {
	reconciled := make([]*receipt.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			reconciled = append(reconciled, r)
		}
	}
	if len(reconciled) == 0 {
		return nil
	}

	if cfg.xlsxPath != "" {
		if err := writeXLSX(cfg.xlsxPath, reconciled); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	if cfg.full {
		enc.SetIndent("", "  ")
		if len(reconciled) == 1 {
			return enc.Encode(reconciled[0])
		}
		return enc.Encode(reconciled)
	}

	for _, r := range reconciled {
		if err := enc.Encode(r.Receipt); err != nil {
			return err
		}
	}
	return nil
}

func writeXLSX(path string, results []*receipt.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := export.WriteXLSX(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeError prints the {"error": ...} document callers parse on failure
func writeError(w io.Writer, err error) {
	message := err.Error()
	var providerErr *scanning.ProviderError
	if errors.As(err, &providerErr) {
		message = providerErr.UserMessage()
	}
	slog.Error("Failed", "error", err)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
