package value

// ObjType tags the concrete kind of a heap-allocated object, one value per
// object kind spec.md lists in §3's Heap Object table. The garbage collector
// (package lang/heap) dispatches tracing and sizing with Go type switches,
// not on this tag.
type ObjType byte

//nolint:revive
const (
	ObjString ObjType = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
	ObjList
	ObjMap
)

func (t ObjType) String() string {
	switch t {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjNative:
		return "native"
	case ObjClosure:
		return "closure"
	case ObjUpvalue:
		return "upvalue"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound method"
	case ObjList:
		return "list"
	case ObjMap:
		return "map"
	default:
		return "unknown"
	}
}

// Obj is the header every heap object embeds. It carries exactly the
// bookkeeping spec.md §3 requires of a "Heap Object": a type tag, the mark
// bit the collector's mark phase sets, and the intrusive "next" link that
// threads every live allocation into the heap's singly-linked object list
// (package lang/heap owns and walks that list; Obj only provides the link).
type Obj struct {
	Kind   ObjType
	Marked bool
	Next   Object
}

// Object is implemented by every heap-allocated Value: it is a Value that
// also carries the Obj GC header. The heap package's allocator returns
// these, and its collector walks them via Header().Next.
type Object interface {
	Value
	Header() *Obj
}
