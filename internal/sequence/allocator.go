package sequence

import (
	"context"
	"fmt"
	"time"
)

// Allocator hands out the next document number for a type and reference date.
type Allocator interface {
	Next(ctx context.Context, docType DocType, ref time.Time) (Number, error)
}

// MaxFinder returns the highest stored number of docType starting with prefix
// whose suffix is numeric. ok is false when no such number exists.
type MaxFinder interface {
	MaxNumber(ctx context.Context, docType DocType, prefix string) (number string, ok bool, err error)
}

// Counter atomically increments and returns the counter for (docType, prefix).
type Counter interface {
	Increment(ctx context.Context, docType DocType, prefix string) (int, error)
}

// ScanAllocator reads the current maximum and adds one.
//
// Two concurrent callers for the same prefix can read the same maximum and
// receive the same number. Callers must serialise allocation and insert, or
// rely on the unique index to reject the loser.
type ScanAllocator struct {
	finder MaxFinder
}

func NewScanAllocator(finder MaxFinder) *ScanAllocator {
	return &ScanAllocator{finder: finder}
}

// Strategy names the allocation strategy for metrics and logs.
func (a *ScanAllocator) Strategy() string { return "scan" }

func (a *ScanAllocator) Next(ctx context.Context, docType DocType, ref time.Time) (Number, error) {
	if !docType.Valid() {
		return Number{}, fmt.Errorf("unknown document type %q", docType)
	}

	prefix := MonthPrefix(ref)
	last, ok, err := a.finder.MaxNumber(ctx, docType, prefix)
	if err != nil {
		return Number{}, fmt.Errorf("failed to read max %s number for %s: %w", docType, prefix, err)
	}

	seq := 1
	if ok {
		seq = NextAfter(prefix, last)
	}
	if err := checkRange(docType, prefix, seq); err != nil {
		return Number{}, err
	}
	return Number{Type: docType, Prefix: prefix, Seq: seq}, nil
}

// CounterAllocator takes numbers from a transactional counter row per
// (type, prefix). Allocation is atomic; a number whose insert later fails is
// not reused, so sequences may have gaps but never duplicates.
type CounterAllocator struct {
	counter Counter
}

func NewCounterAllocator(counter Counter) *CounterAllocator {
	return &CounterAllocator{counter: counter}
}

func (a *CounterAllocator) Strategy() string { return "counter" }

func (a *CounterAllocator) Next(ctx context.Context, docType DocType, ref time.Time) (Number, error) {
	if !docType.Valid() {
		return Number{}, fmt.Errorf("unknown document type %q", docType)
	}

	prefix := MonthPrefix(ref)
	seq, err := a.counter.Increment(ctx, docType, prefix)
	if err != nil {
		return Number{}, fmt.Errorf("failed to increment %s counter for %s: %w", docType, prefix, err)
	}
	if seq < 1 {
		return Number{}, fmt.Errorf("counter for %s %s returned %d", docType, prefix, seq)
	}
	if err := checkRange(docType, prefix, seq); err != nil {
		return Number{}, err
	}
	return Number{Type: docType, Prefix: prefix, Seq: seq}, nil
}
