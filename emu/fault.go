package emu

import "fmt"

// AccessKind identifies the kind of memory access being translated. The
// TLB keeps an independent partition per kind because the permission bit
// that authorizes an access differs per kind.
type AccessKind uint8

// Access kinds.
const (
	// AccessLoad is a data read.
	AccessLoad AccessKind = iota
	// AccessStore is a data write.
	AccessStore
	// AccessFetch is an instruction fetch.
	AccessFetch
)

// String returns the access kind name.
func (k AccessKind) String() string {
	switch k {
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	case AccessFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// FaultKind identifies why a memory access failed.
type FaultKind uint8

// Fault kinds.
const (
	// FaultMisaligned means the address does not satisfy the access
	// width's natural alignment.
	FaultMisaligned FaultKind = iota
	// FaultPage means no valid mapping was found during the page-table
	// walk: an unmapped entry, a malformed descriptor, or walk depth
	// exhausted without reaching a leaf.
	FaultPage
	// FaultAccess means a valid mapping exists but lacks the permission
	// bit required for the access kind at the current privilege level.
	FaultAccess
	// FaultBadAddress means translation produced an offset outside the
	// backing memory buffer. This is an internal invariant failure: a
	// well-formed page table never maps beyond the buffer.
	FaultBadAddress
)

// String returns the fault kind name.
func (k FaultKind) String() string {
	switch k {
	case FaultMisaligned:
		return "address misaligned"
	case FaultPage:
		return "page fault"
	case FaultAccess:
		return "access fault"
	case FaultBadAddress:
		return "bad physical address"
	default:
		return "unknown fault"
	}
}

// A Fault is the error signaled when a memory access cannot complete.
// Faults are synchronous: the access is fully aborted, memory is left
// unmodified, and the faulting virtual address is recorded in the MMU
// before the Fault is returned. Match with errors.As:
//
//	var f *emu.Fault
//	if errors.As(err, &f) { ... f.Kind, f.Access, f.Addr ... }
type Fault struct {
	// Kind is why the access failed.
	Kind FaultKind
	// Access is the kind of access that failed.
	Access AccessKind
	// Addr is the faulting virtual address.
	Addr uint64
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s %s at 0x%X", f.Access, f.Kind, f.Addr)
}
