package order

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// suffix alphabet: base32 without lookalike characters.
const numberAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	numberSuffixLen    = 6
	numberMaxAttempts  = 5
	numberBloomCap     = 10_000_000
	numberBloomFPR     = 0.001
	numberDatePrefix   = "ORD-20060102-"
)

// NumberGenerator issues human-readable, collision-checked order numbers of
// the form ORD-YYYYMMDD-XXXXXX.
//
// A bloom filter of numbers issued by this process is the fast path; a
// repository existence check is the authority. The random suffix makes
// collisions improbable, the check loop makes them impossible to issue.
type NumberGenerator struct {
	repo Repository

	mu     sync.Mutex
	issued *bloom.BloomFilter
	now    func() time.Time
}

// NewNumberGenerator creates a generator backed by the repository's
// uniqueness check.
func NewNumberGenerator(repo Repository) *NumberGenerator {
	return &NumberGenerator{
		repo:   repo,
		issued: bloom.NewWithEstimates(numberBloomCap, numberBloomFPR),
		now:    time.Now,
	}
}

// Next returns a fresh order number that neither this process nor the
// repository has seen.
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	for range numberMaxAttempts {
		n, err := g.candidate()
		if err != nil {
			return "", err
		}

		g.mu.Lock()
		seen := g.issued.TestString(n)
		g.mu.Unlock()
		if seen {
			continue
		}

		exists, err := g.repo.NumberExists(ctx, n)
		if err != nil {
			return "", errors.Wrap(err, "check order number")
		}
		if exists {
			g.mu.Lock()
			g.issued.AddString(n)
			g.mu.Unlock()
			continue
		}

		g.mu.Lock()
		g.issued.AddString(n)
		g.mu.Unlock()
		return n, nil
	}
	return "", errors.New("order number space exhausted after retries")
}

func (g *NumberGenerator) candidate() (string, error) {
	buf := make([]byte, numberSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random suffix")
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return g.now().UTC().Format(numberDatePrefix) + string(buf), nil
}
