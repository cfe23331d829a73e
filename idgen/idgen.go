// Package idgen provides sequential ID generators. Two generators created the
// same way emit the same IDs, which keeps simulation replays identical.
package idgen

import "strconv"

// ID is a unique identifier represented as a uint64.
type ID uint64

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is "1".
func New() Generator {
	return &sequentialGenerator{}
}

// NewFrom returns a sequential generator whose first emitted ID is first.
func NewFrom(first ID) Generator {
	if first == 0 {
		panic("idgen: first ID must be positive")
	}

	return &sequentialGenerator{next: uint64(first) - 1}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	g.next++
	return ID(g.next)
}
