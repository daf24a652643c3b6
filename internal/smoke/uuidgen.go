package smoke

import (
	"strconv"

	"github.com/google/uuid"
)

// smokeNamespace seeds the deterministic UUID generator — a fixed,
// arbitrary namespace so the same (entity, index) pair always produces
// the same UUID across runs, letting scenario construction and the
// seed-DB emitter agree by construction.
var smokeNamespace = uuid.MustParse("7b6a9f2e-9f0a-4f0d-8a8e-0f6f9a9c6b10")

// UUIDGenerator hands out deterministic UUIDs keyed by entity name and
// a per-entity sequence number, so the Nth fixture row for an entity
// always gets the same id regardless of which scenario asks for it
// first.
type UUIDGenerator struct {
	counters map[string]int
}

// NewUUIDGenerator returns a generator with all per-entity counters at zero.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{counters: make(map[string]int)}
}

// Next returns the next deterministic UUID for entity.
func (g *UUIDGenerator) Next(entity string) uuid.UUID {
	n := g.counters[entity]
	g.counters[entity] = n + 1
	return g.At(entity, n)
}

// At returns the deterministic UUID for the index'th fixture row of
// entity, without advancing the sequence — used by scenario
// construction to reference a row a previous scenario is known to have
// created.
func (g *UUIDGenerator) At(entity string, index int) uuid.UUID {
	name := entity + "#" + strconv.Itoa(index)
	return uuid.NewSHA1(smokeNamespace, []byte(name))
}
