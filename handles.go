package rtm

// HandleKind distinguishes buckets from proofs.
type HandleKind uint8

const (
	// BucketHandle names a consumable bucket.
	BucketHandle HandleKind = iota

	// ProofHandle names a proof taken from the auth zone.
	ProofHandle
)

func (k HandleKind) String() string {
	if k == ProofHandle {
		return "proof"
	}
	return "bucket"
}

// handleAllocator hands out handle ids in request order. Ids are never
// recycled within one manifest.
type handleAllocator struct {
	kinds []HandleKind // kinds[h] is the kind of handle h
}

func newHandleAllocator() *handleAllocator {
	return &handleAllocator{kinds: make([]HandleKind, 0, 4)}
}

// allocate returns the next unused handle.
func (a *handleAllocator) allocate(kind HandleKind) Handle {
	h := Handle(len(a.kinds))
	a.kinds = append(a.kinds, kind)
	return h
}

// count returns the number of handles allocated so far.
func (a *handleAllocator) count() int {
	return len(a.kinds)
}

// kind returns the kind of an allocated handle.
func (a *handleAllocator) kind(h Handle) (HandleKind, bool) {
	if int(h) >= len(a.kinds) {
		return 0, false
	}
	return a.kinds[h], true
}
