package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
	"github.com/zombor/receipt-reconciler/internal/scanning"
)

// IDGenerator generates unique IDs for results
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service scans and reconciles receipts
type Service struct {
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
	logger      *slog.Logger
}

// NewService creates a new Service with default ID generator and time source
func NewService(scanner scanning.Scanner, logger *slog.Logger) *Service {
	return NewServiceWithDeps(scanner, &uuidGenerator{}, &defaultTimeSource{}, logger)
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, idGen IDGenerator, timeSrc TimeSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
		logger:      logger,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone cameras produce very long names
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// contentTypeFromFilename guesses the MIME type of a receipt file from its extension
func contentTypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// ScanReceipt sends an image to the scanner and reconciles the extraction
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Result, error) {
	raw, err := s.scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		s.logger.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	return s.reconcile(sanitizeFilename(filename), raw)
}

// ReconcileExtraction reconciles an extraction the caller already has
func (s *Service) ReconcileExtraction(ctx context.Context, source string, raw *reconcile.RawReceipt) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reconcile(source, raw)
}

// ScanFiles scans and reconciles receipt files with at most concurrency
// scans in flight. Results are in the order of paths. A receipt that fails
// leaves a nil entry and does not stop the others; the returned error joins
// every failure.
func (s *Service) ScanFiles(ctx context.Context, paths []string, concurrency int) ([]*Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(paths))
	errs := make([]error, len(paths))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			results[i], errs[i] = s.scanFile(ctx, path)
			return nil
		})
	}
	g.Wait()

	return results, errors.Join(errs...)
}

func (s *Service) scanFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := s.ScanReceipt(ctx, path, data, contentTypeFromFilename(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

func (s *Service) reconcile(source string, raw *reconcile.RawReceipt) (*Result, error) {
	reconciled, err := reconcile.Reconcile(raw)
	if err != nil {
		s.logger.Error("Failed to reconcile receipt", "source", source, "error", err)
		return nil, fmt.Errorf("reconciling receipt: %w", err)
	}

	result := &Result{
		ID:          s.idGenerator.Generate(),
		Source:      source,
		ProcessedAt: s.timeSource.Now(),
		Result:      reconciled,
	}
	s.logDiagnostics(result)

	return result, nil
}

func (s *Service) logDiagnostics(r *Result) {
	for _, w := range r.Diagnostics.Warnings {
		s.logger.Warn("Receipt does not add up",
			"id", r.ID,
			"source", r.Source,
			"kind", w.Kind,
			"computed", w.Computed,
			"stated", w.Stated,
			"message", w.String(),
		)
	}
	if len(r.Diagnostics.ManualPriceItems) > 0 {
		s.logger.Warn("Items need a manual price", "id", r.ID, "source", r.Source, "items", r.Diagnostics.ManualPriceItems)
	}
	if r.Unresolved() {
		s.logger.Warn("Could not tell line totals from unit prices",
			"id", r.ID,
			"source", r.Source,
			"computed_sum", *r.Pricing.ComputedSum,
			"total", r.Receipt.Total,
		)
	}
	s.logger.Info("Reconciled receipt", "id", r.ID, "source", r.Source, "state", r.State, "items", len(r.Receipt.Items))
}
