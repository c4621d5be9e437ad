package ctrl

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// An IDGenerator produces the identifiers handed to controllers, cells, and
// commands that were not given an explicit label or key.
type IDGenerator interface {
	Generate() string
}

var idGen struct {
	mu     sync.Mutex
	inUse  bool
	active IDGenerator
}

// UseSequentialIDGenerator selects sequential IDs. Sequential IDs keep
// command keys and trace output deterministic across runs.
func UseSequentialIDGenerator() {
	selectIDGenerator(&sequentialIDGenerator{})
}

// UseParallelIDGenerator selects xid-based IDs, which stay unique when many
// goroutines generate at once but are not deterministic.
func UseParallelIDGenerator() {
	selectIDGenerator(parallelIDGenerator{})
}

// GetIDGenerator returns the generator of the current process. The first use
// defaults to the sequential generator.
func GetIDGenerator() IDGenerator {
	idGen.mu.Lock()
	defer idGen.mu.Unlock()

	if !idGen.inUse {
		idGen.active = &sequentialIDGenerator{}
		idGen.inUse = true
	}

	return idGen.active
}

// The generator must be picked before anything asks for an ID; switching
// later would hand out colliding or differently-shaped IDs.
func selectIDGenerator(g IDGenerator) {
	idGen.mu.Lock()
	defer idGen.mu.Unlock()

	if idGen.inUse {
		panic("cannot change the ID generator after it has been used")
	}

	idGen.active = g
	idGen.inUse = true
}

type sequentialIDGenerator struct {
	next atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.next.Add(1), 10)
}

type parallelIDGenerator struct{}

func (parallelIDGenerator) Generate() string {
	return xid.New().String()
}
