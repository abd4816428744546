package scanning

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
)

type mockScanner struct {
	calls  int
	raw    *reconcile.RawReceipt
	err    error
	closed bool
	name   string
}

func (m *mockScanner) ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*reconcile.RawReceipt, error) {
	m.calls++
	return m.raw, m.err
}

func (m *mockScanner) Close() error {
	m.closed = true
	return nil
}

func (m *mockScanner) Name() string {
	return m.name
}

var _ = Describe("BoltCache", func() {
	var cache *BoltCache

	BeforeEach(func() {
		var err error
		cache, err = NewBoltCache(filepath.Join(GinkgoT().TempDir(), "scans.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cache.Close()
	})

	It("should report a miss for unknown keys", func() {
		_, ok, err := cache.Get("missing")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should return what was stored", func() {
		Expect(cache.Put("k", []byte("v"))).To(Succeed())
		value, ok, err := cache.Get("k")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal([]byte("v")))
	})
})

var _ = Describe("CachingScanner", func() {
	var (
		next    *mockScanner
		cache   *BoltCache
		scanner *CachingScanner
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		next = &mockScanner{
			name: "mock/v1",
			raw: &reconcile.RawReceipt{
				Merchant: "Cafe",
				Items:    []reconcile.RawItem{{Name: "Tea", Qty: reconcile.Number(1), Price: reconcile.Text("2.50")}},
				Subtotal: reconcile.Number(2.5),
				Tip:      reconcile.Null(),
				Total:    reconcile.Number(2.5),
			},
		}

		var err error
		cache, err = NewBoltCache(filepath.Join(GinkgoT().TempDir(), "scans.db"))
		Expect(err).NotTo(HaveOccurred())
		scanner = NewCachingScanner(next, cache, discardLogger())
	})

	AfterEach(func() {
		scanner.Close()
	})

	It("should scan an unseen image", func() {
		raw, err := scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Merchant).To(Equal("Cafe"))
		Expect(next.calls).To(Equal(1))
	})

	It("should serve a repeated image from the cache", func() {
		_, err := scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())

		raw, err := scanner.ScanReceipt(ctx, []byte("image"), "IMAGE/PNG; charset=binary")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.calls).To(Equal(1))
		Expect(raw.Merchant).To(Equal("Cafe"))
	})

	It("should keep absent, null and text values through the cache", func() {
		_, err := scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())

		raw, err := scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Tax.IsZero()).To(BeTrue())
		Expect(raw.Tip.IsNull()).To(BeTrue())
		Expect(raw.Items[0].Price.String()).To(Equal(`"2.50"`))
	})

	It("should scan a different image", func() {
		_, _ = scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		_, _ = scanner.ScanReceipt(ctx, []byte("other"), "image/png")
		Expect(next.calls).To(Equal(2))
	})

	It("should not cache failures", func() {
		next.err = errors.New("boom")
		_, err := scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).To(MatchError("boom"))

		next.err = nil
		_, err = scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.calls).To(Equal(2))
	})

	It("should rescan when the cache entry is unreadable", func() {
		_, err := scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(cache.Put(scanner.key([]byte("image"), "image/png"), []byte("not json"))).To(Succeed())

		_, err = scanner.ScanReceipt(ctx, []byte("image"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.calls).To(Equal(2))
	})

	It("should report the wrapped scanner's name", func() {
		Expect(scanner.Name()).To(Equal("mock/v1"))
	})

	It("should close the wrapped scanner", func() {
		Expect(scanner.Close()).To(Succeed())
		Expect(next.closed).To(BeTrue())
	})
})
