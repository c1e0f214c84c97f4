// Package id provides ULID generation for everything TextWarden names at runtime.
//
// IDs are lexicographically sortable and carry a type prefix so logs stay
// readable:
//   - fields:   textwarden-field-<ulid> (also written into the page as the element id)
//   - markers:  mark_<ulid>
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FieldID identifies a tracked editable surface
type FieldID string

// MarkerID identifies one rendered highlight
type MarkerID string

const (
	FieldPrefix  = "textwarden-field-"
	MarkerPrefix = "mark_"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string. The prefix carries its
// own separator.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s%s", prefix, g.GenerateString())
}

// NewFieldID generates a new field ID
func NewFieldID() FieldID {
	return FieldID(Default().GenerateWithPrefix(FieldPrefix))
}

// NewMarkerID generates a new marker ID
func NewMarkerID() MarkerID {
	return MarkerID(Default().GenerateWithPrefix(MarkerPrefix))
}

func (id FieldID) String() string  { return string(id) }
func (id MarkerID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsGenerated reports whether id is prefix followed by a valid ULID
func IsGenerated(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	return ok && IsValid(rest)
}

// Timestamp extracts the timestamp from a prefixed or bare ULID
func Timestamp(id string) (time.Time, error) {
	for _, prefix := range []string{FieldPrefix, MarkerPrefix} {
		id = strings.TrimPrefix(id, prefix)
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
