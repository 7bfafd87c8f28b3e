package defn

// FWThreadCounters is a snapshot of a forwarding thread's counters.
type FWThreadCounters struct {
	NPitEntries           int
	NInInterests          uint64
	NOutInterests         uint64
	NInNacks              uint64
	NOutNacks             uint64
	NRejectedInterests    uint64
	NUnsatisfiedInterests uint64
}
