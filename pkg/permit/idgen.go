package permit

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix starts every permit id unless configured otherwise
const DefaultPrefix = "DOD"

// suffixLength is the number of random characters in a default permit id
const suffixLength = 6

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IDGenerator produces permit ids of the form <prefix>-<YYYY-MM-DD>-<suffix>.
// Uniqueness is best effort.
type IDGenerator interface {
	NewID(issued time.Time) string
}

// FormatID joins the parts of a permit id. The date is the UTC calendar day
// of issued.
func FormatID(prefix string, issued time.Time, suffix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, issued.UTC().Format("2006-01-02"), suffix)
}

// RandomGenerator uses six random uppercase base-36 characters as the suffix
type RandomGenerator struct {
	Prefix string
}

// NewRandomGenerator creates a RandomGenerator. An empty prefix selects DefaultPrefix.
func NewRandomGenerator(prefix string) *RandomGenerator {
	return &RandomGenerator{Prefix: orDefault(prefix)}
}

// NewID implements IDGenerator
func (g *RandomGenerator) NewID(issued time.Time) string {
	return FormatID(g.Prefix, issued, randomSuffix(suffixLength))
}

// UUIDGenerator uses the first eight hex digits of a random UUID as the suffix
type UUIDGenerator struct {
	Prefix string
}

// NewUUIDGenerator creates a UUIDGenerator. An empty prefix selects DefaultPrefix.
func NewUUIDGenerator(prefix string) *UUIDGenerator {
	return &UUIDGenerator{Prefix: orDefault(prefix)}
}

// NewID implements IDGenerator
func (g *UUIDGenerator) NewID(issued time.Time) string {
	return FormatID(g.Prefix, issued, strings.ToUpper(uuid.NewString()[:8]))
}

// CounterGenerator uses a salt followed by a monotonic counter as the
// suffix. With a fixed salt its output is fully deterministic.
type CounterGenerator struct {
	Prefix string
	Salt   string
	n      atomic.Uint64
}

// NewCounterGenerator creates a CounterGenerator. An empty salt is replaced
// with two random characters so separate processes are unlikely to collide.
func NewCounterGenerator(prefix, salt string) *CounterGenerator {
	if salt == "" {
		salt = randomSuffix(2)
	}
	return &CounterGenerator{Prefix: orDefault(prefix), Salt: salt}
}

// NewID implements IDGenerator
func (g *CounterGenerator) NewID(issued time.Time) string {
	return FormatID(g.Prefix, issued, fmt.Sprintf("%s%04d", g.Salt, g.n.Add(1)))
}

// NewGenerator selects a generator by strategy name: random, uuid or counter
func NewGenerator(strategy, prefix string) (IDGenerator, error) {
	switch strategy {
	case "", "random":
		return NewRandomGenerator(prefix), nil
	case "uuid":
		return NewUUIDGenerator(prefix), nil
	case "counter":
		return NewCounterGenerator(prefix, ""), nil
	default:
		return nil, fmt.Errorf("unknown permit id strategy %q", strategy)
	}
}

func orDefault(prefix string) string {
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

func randomSuffix(n int) string {
	limit := big.NewInt(int64(len(base36)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("reading random permit suffix: %v", err))
		}
		b.WriteByte(base36[idx.Int64()])
	}
	return b.String()
}
