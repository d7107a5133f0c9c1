package jsgen

import (
	"strconv"
	"sync/atomic"
)

// NamePool hands out collision-free identifiers under a prefix. Counters
// are atomic so one Pools value can be shared by concurrent compiles.
type NamePool struct {
	prefix string
	n      atomic.Uint64
}

// NewNamePool creates a pool. prefix must be a valid identifier start.
func NewNamePool(prefix string) *NamePool {
	return &NamePool{prefix: prefix}
}

// Next returns the next name: prefix plus a base-36 counter.
func (p *NamePool) Next() string {
	n := p.n.Add(1) - 1
	return p.prefix + strconv.FormatUint(n, 36)
}

// Pools groups the shared name pools a compiler needs: factory closure
// names, plain script names and suspendable script names. One Pools value
// normally lives for the whole process; tests create their own for
// deterministic names.
type Pools struct {
	Factory   *NamePool
	Function  *NamePool
	Generator *NamePool
}

// NewPools creates a fresh set of script-level pools.
func NewPools() *Pools {
	return &Pools{
		Factory:   NewNamePool("factory"),
		Function:  NewNamePool("fun"),
		Generator: NewNamePool("gen"),
	}
}
