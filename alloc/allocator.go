package alloc

// Allocator is read/write access to one zerobuf buffer, or to a window of an
// ancestor's buffer, plus the directory-based dynamic field API.
type Allocator interface {
	// Bytes returns the current contents. Always available, including on
	// read-only allocators. Callers must not write through it.
	Bytes() []byte

	// MutableBytes returns the contents for writing, or ErrImmutable.
	MutableBytes() ([]byte, error)

	// Size returns len(Bytes()).
	Size() int

	// StaticSize is the size of header, directory and fixed fields.
	StaticSize() int

	// NumDynamic is the number of directory entries.
	NumDynamic() int

	// CopyFrom replaces the entire contents with data.
	CopyFrom(data []byte) error

	// UpdateAllocation resizes dynamic field index to newSize bytes and
	// returns its storage. With copyExisting the first min(old, new) bytes
	// survive a relocation. newSize 0 frees the field.
	UpdateAllocation(index int, copyExisting bool, newSize int) ([]byte, error)

	// Compact removes all holes when the wasted fraction
	// (size-minSize)/minSize is at least threshold. A threshold of 1 or
	// more never compacts, however much is wasted.
	Compact(threshold float32) error

	// Movable reports whether an object may take over this allocator
	// instead of copying its bytes.
	Movable() bool

	// Mutable reports whether mutators can succeed.
	Mutable() bool

	// Check validates numDynamic directory entries against the buffer and
	// returns a *LayoutError for the first violation.
	Check(numDynamic int) error
}

// Path names the branch of the allocation policy an update took.
type Path uint8

const (
	PathShrink Path = iota + 1
	PathFree
	PathInPlace
	PathHole
	PathAppend
	PathGrow
)

var pathNames = [...]string{
	PathShrink:  "shrink",
	PathFree:    "free",
	PathInPlace: "in_place",
	PathHole:    "hole",
	PathAppend:  "append",
	PathGrow:    "grow",
}

func (p Path) String() string {
	if int(p) < len(pathNames) && pathNames[p] != "" {
		return pathNames[p]
	}
	return "unknown"
}

// Event describes one completed UpdateAllocation.
type Event struct {
	Index      int
	Path       Path
	Offset     int
	OldSize    int
	NewSize    int
	BufferSize int
}

// Observer receives allocation decisions. Sub-views report to the observer
// of the root they were derived from.
type Observer interface {
	OnAllocation(ev Event)
	OnCompact(before, after int)
}

// Option configures a root allocator.
type Option func(*base)

// WithObserver attaches o to a root allocator and every view derived from it.
func WithObserver(o Observer) Option {
	return func(b *base) { b.obs = o }
}

// ObserverOf returns the observer attached to a (nil when none).
func ObserverOf(a Allocator) Observer {
	if o, ok := a.(interface{ observer() Observer }); ok {
		return o.observer()
	}
	return nil
}
