package services

import (
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

const receiptPrefix = "RCP"

var (
	referenceCounter     uint32
	accountNumberCounter uint32
)

// generateReferenceNumber returns a 30 digit reference: UTC timestamp,
// nanoseconds and a process-wide counter.
func generateReferenceNumber() string {
	now := time.Now().UTC()
	base := now.Format("20060102150405") + fmt.Sprintf("%09d", now.Nanosecond())
	counter := atomic.AddUint32(&referenceCounter, 1) % 10000000
	return base + fmt.Sprintf("%07d", counter)
}

func generateAccountNumber() string {
	counter := int64(atomic.AddUint32(&accountNumberCounter, 1))
	return fmt.Sprintf("%010d", (time.Now().UnixNano()+counter)%10_000_000_000)
}

func isTenDigitAccountNumber(accountNumber string) bool {
	if len(accountNumber) != 10 {
		return false
	}

	for _, ch := range accountNumber {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}

// receiptGenerator issues RCP-prefixed ULIDs. Monotonic entropy keeps receipts
// issued within the same millisecond sortable and distinct.
type receiptGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newReceiptGenerator() *receiptGenerator {
	return &receiptGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *receiptGenerator) next(at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(at), g.entropy)
	if err != nil {
		// Entropy overflow within one millisecond; fall back to a fresh source.
		id = ulid.Make()
	}
	return receiptPrefix + id.String()
}
