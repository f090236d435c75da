package cache

// Observer mirrors a program's data memory traffic into an L1 data cache
// model. It implements the emulator's MemoryObserver interface and keeps a
// running cycle count so a run can report cache statistics afterwards.
type Observer struct {
	l1d    *Cache
	cycles uint64
}

// NewObserver creates an Observer backed by the given L1 data cache.
func NewObserver(l1d *Cache) *Observer {
	return &Observer{l1d: l1d}
}

// Access records one physical data access in the cache model.
func (o *Observer) Access(write bool, paddr uint64, size int) {
	var result AccessResult
	if write {
		result = o.l1d.Write(paddr, size, 0)
	} else {
		result = o.l1d.Read(paddr, size)
	}
	o.cycles += result.Latency
}

// Cycles returns the accumulated data access latency in cycles.
func (o *Observer) Cycles() uint64 {
	return o.cycles
}

// Stats returns the statistics of the underlying L1 data cache.
func (o *Observer) Stats() Statistics {
	return o.l1d.Stats()
}
