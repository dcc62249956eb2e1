// Package heap implements the object heap and garbage collector described
// in spec.md §3 ("Lifecycle") and §4.5 ("Garbage Collector"): a singly
// linked list of every live heap allocation, a weak string-intern table,
// and a precise mark-sweep collector triggered by allocation pressure or
// stress mode.
//
// There is no teacher equivalent: the teacher (github.com/mna/nenuphar)
// relies on Go's own garbage collector to trace its heap, so it has no
// manual mark-sweep code at all. This package is new, built directly from
// spec.md §4.5's algorithm description. It reuses the teacher's
// golang.org/x/exp/maps dependency for the same "stable snapshot of a map's
// keys before mutating it" role the teacher's resolver package uses it for
// (see gc.go's pruneInternTable, which snapshots the intern table's keys
// before deleting unreachable entries, after marking and before sweep).
package heap

import (
	"github.com/mna/loxvm/lang/value"
)

// DefaultGrowthFactor is the small integer factor the next collection
// threshold grows by after each collection (spec.md §4.5).
const DefaultGrowthFactor = 2

// RootSource is implemented by any long-lived subsystem that holds its own
// GC roots outside the heap's object list: the VM's value stack, call
// frames, open upvalues and globals table (spec.md §4.5 "Roots"). The
// virtual machine (package lang/vm) registers itself as a Heap's sole
// RootSource.
type RootSource interface {
	// MarkRoots must call mark once for every value.Value the source holds
	// live. It must not allocate.
	MarkRoots(mark func(value.Value))
}

// Heap owns every heap-allocated object, the string intern table, and the
// mark-sweep collector's state.
type Heap struct {
	objects value.Object // head of the intrusive "all objects" list
	strings map[string]*value.String

	growthFactor     uint64
	initialThreshold uint64
	nextGC           uint64
	bytesAllocated   uint64
	bytesFreed       uint64
	objectsCreated   uint64
	liveObjects      uint64

	// StressGC forces a full collection on every allocation, surfacing
	// root-tracking bugs (spec.md §4.5, glossary "Stress GC").
	StressGC bool

	root RootSource
	// compilerRoots holds the Function objects currently under construction
	// by the compiler (spec.md §3 Lifecycle: "the compiler itself must be
	// GC-rooted for the duration of compilation").
	compilerRoots []value.Value
	gray          []value.Object
}

// New returns a Heap with the given initial collection threshold. A
// threshold of 0 uses a reasonable built-in default.
func New(initialThreshold uint64, stressGC bool) *Heap {
	if initialThreshold == 0 {
		initialThreshold = 1 << 20
	}
	return &Heap{
		strings:          make(map[string]*value.String),
		growthFactor:     DefaultGrowthFactor,
		initialThreshold: initialThreshold,
		nextGC:           initialThreshold,
		StressGC:         stressGC,
	}
}

// SetRootSource registers the VM (or any RootSource) whose live roots the
// collector must mark on every collection. Only one root source is
// supported; the VM is expected to be the heap's owner.
func (h *Heap) SetRootSource(rs RootSource) { h.root = rs }

// PushCompilerRoot roots fn for the duration of its compilation, so that
// constants and nested functions already emitted into its Chunk survive a
// collection triggered mid-compile (spec.md §3 Lifecycle, §4.5 Roots).
func (h *Heap) PushCompilerRoot(fn *value.Function) {
	h.compilerRoots = append(h.compilerRoots, fn)
}

// PopCompilerRoot unroots the most recently pushed compiler root, once its
// function's compilation is complete.
func (h *Heap) PopCompilerRoot() {
	if n := len(h.compilerRoots); n > 0 {
		h.compilerRoots = h.compilerRoots[:n-1]
	}
}

func (h *Heap) link(obj value.Object) {
	hdr := obj.Header()
	hdr.Next = h.objects
	h.objects = obj
	h.objectsCreated++
	h.liveObjects++
}

// account adds size bytes to the running allocation total and, if the
// threshold is exceeded (or stress mode is on), runs a collection.
func (h *Heap) account(size uint64) {
	h.bytesAllocated += size
	if h.StressGC || h.netBytes() > h.nextGC {
		h.Collect()
	}
}

func (h *Heap) netBytes() uint64 {
	if h.bytesAllocated < h.bytesFreed {
		return 0
	}
	return h.bytesAllocated - h.bytesFreed
}

// Stats reports the heap's current counters, backing the sys__mem_*
// introspection natives (spec.md §4.5).
type Stats struct {
	BytesAllocated uint64
	BytesFreed     uint64
	NetBytes       uint64
	ObjectsCreated uint64
	LiveObjects    uint64
	NextGC         uint64
}

func (h *Heap) Stats() Stats {
	return Stats{
		BytesAllocated: h.bytesAllocated,
		BytesFreed:     h.bytesFreed,
		NetBytes:       h.netBytes(),
		ObjectsCreated: h.objectsCreated,
		LiveObjects:    h.liveObjects,
		NextGC:         h.nextGC,
	}
}
