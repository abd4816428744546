package scanning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
)

const scansBucket = "scans"

// Cache stores recognizer responses by key
type Cache interface {
	// Get returns the cached value, or ok=false if there is none
	Get(key string) (value []byte, ok bool, err error)
	// Put stores value under key
	Put(key string, value []byte) error
	// Close closes the underlying store
	Close() error
}

// BoltCache implements the Cache interface using BoltDB
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens (or creates) a scan cache at path
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(scansBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltCache{db: db}, nil
}

// Get retrieves a cached response
func (b *BoltCache) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(scansBucket)).Get([]byte(key))
		if data != nil {
			// bbolt memory is only valid inside the transaction
			value = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

// Put stores a response
func (b *BoltCache) Put(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(scansBucket)).Put([]byte(key), value)
	})
}

// Close closes the database
func (b *BoltCache) Close() error {
	return b.db.Close()
}

// CachingScanner returns cached extractions for images it has already seen
// and delegates everything else to the wrapped Scanner. Cache failures are
// logged and never fail a scan.
type CachingScanner struct {
	next   Scanner
	cache  Cache
	logger *slog.Logger
}

// NewCachingScanner wraps next with cache
func NewCachingScanner(next Scanner, cache Cache, logger *slog.Logger) *CachingScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingScanner{next: next, cache: cache, logger: logger}
}

// ScanReceipt serves from the cache or scans and stores the extraction
func (c *CachingScanner) ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*reconcile.RawReceipt, error) {
	key := c.key(imageData, contentType)

	if value, ok, err := c.cache.Get(key); err != nil {
		c.logger.Warn("Failed to read scan cache", "key", key, "error", err)
	} else if ok {
		raw, err := DecodeExtraction(value)
		if err == nil {
			c.logger.Debug("Scan cache hit", "key", key)
			return raw, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", "key", key, "error", err)
	}

	raw, err := c.next.ScanReceipt(ctx, imageData, contentType)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(raw)
	if err != nil {
		c.logger.Warn("Failed to encode extraction for cache", "key", key, "error", err)
		return raw, nil
	}
	if err := c.cache.Put(key, value); err != nil {
		c.logger.Warn("Failed to write scan cache", "key", key, "error", err)
	}

	return raw, nil
}

// Name reports the wrapped scanner's name
func (c *CachingScanner) Name() string {
	return scannerName(c.next)
}

// Close closes the wrapped scanner and the cache
func (c *CachingScanner) Close() error {
	scanErr := c.next.Close()
	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}
	return scanErr
}

func (c *CachingScanner) key(imageData []byte, contentType string) string {
	h := sha256.New()
	h.Write([]byte(scannerName(c.next)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeMIMEType(contentType)))
	h.Write([]byte{0})
	h.Write(imageData)
	return hex.EncodeToString(h.Sum(nil))
}

func scannerName(s Scanner) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
