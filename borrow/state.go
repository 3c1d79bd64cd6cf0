package borrow

import (
	"math"

	"daisyc/report"
	"daisyc/types"
)

// moveState is the ownership state of a local binding.
type moveState int

const (
	// stateOwned bindings hold their value and may be read or moved.
	stateOwned moveState = iota

	// stateMoved bindings gave their value away.  Reads are errors until the
	// binding is reassigned.
	stateMoved

	// stateConsumed bindings referred to a region that has been released.
	stateConsumed
)

// binding tracks the ownership of one local over the checked function.
type binding struct {
	name  string
	typ   types.Type
	state moveState

	// Where the binding left the owned state: the moving use or the release.
	eventSpan *report.TextSpan
}

// borrowRec is one live borrow of a region.  Borrows over statically known
// disjoint ranges of the same region are independent.
type borrowRec struct {
	// The name of the binding that owns the region.
	owner string

	// The binding holding the view, empty for a borrow made directly in a
	// call argument.
	holder string

	mutable bool

	// Half-open byte range of the borrow.  A negative bound means the bound
	// is not statically known and the borrow covers the whole region.
	start, end int64

	span *report.TextSpan
}

// describe names the borrow for diagnostics.
func (b *borrowRec) describe() string {
	if b.holder == "" {
		return "a call argument"
	}

	return "`" + b.holder + "`"
}

// kindName is the borrow's mutability as written in diagnostics.
func (b *borrowRec) kindName() string {
	if b.mutable {
		return "mutable"
	}

	return "immutable"
}

// frame is one lexical scope: the bindings it introduces and the borrows that
// expire when it ends.
type frame struct {
	bindings map[string]*binding
	borrows  []*borrowRec
}

func newFrame() *frame {
	return &frame{bindings: make(map[string]*binding)}
}

// -----------------------------------------------------------------------------

// cloneFrames deep-copies the binding states of a scope stack.  Borrow records
// are shared: a record present in two clones is the same borrow.
func cloneFrames(frames []*frame) []*frame {
	out := make([]*frame, len(frames))
	for i, f := range frames {
		nf := newFrame()
		for name, b := range f.bindings {
			copied := *b
			nf.bindings[name] = &copied
		}

		nf.borrows = append([]*borrowRec(nil), f.borrows...)
		out[i] = nf
	}

	return out
}

// joinFrames merges the scope stacks left by the branches of a conditional.
// Move state takes the upper bound across branches and borrow sets take the
// union.
func joinFrames(exits [][]*frame) []*frame {
	joined := exits[0]

	for i, f := range joined {
		for name, b := range f.bindings {
			for _, exit := range exits[1:] {
				other := exit[i].bindings[name]
				if other != nil && other.state > b.state {
					b.state = other.state
					b.eventSpan = other.eventSpan
				}
			}
		}

		seen := make(map[*borrowRec]bool, len(f.borrows))
		for _, rec := range f.borrows {
			seen[rec] = true
		}

		for _, exit := range exits[1:] {
			for _, rec := range exit[i].borrows {
				if !seen[rec] {
					seen[rec] = true
					f.borrows = append(f.borrows, rec)
				}
			}
		}
	}

	return joined
}

// rangesOverlap reports whether two half-open borrow ranges intersect.
// Unknown bounds extend the range to the whole region.
func rangesOverlap(aStart, aEnd, bStart, bEnd int64) bool {
	if aStart < 0 {
		aStart = 0
	}
	if bStart < 0 {
		bStart = 0
	}
	if aEnd < 0 {
		aEnd = math.MaxInt64
	}
	if bEnd < 0 {
		bEnd = math.MaxInt64
	}

	return aStart < bEnd && bStart < aEnd
}

// conflicts reports whether two borrows of the same region cannot coexist:
// their ranges overlap and at least one of them is mutable.
func conflicts(a, b *borrowRec) bool {
	if a.owner != b.owner {
		return false
	}

	return rangesOverlap(a.start, a.end, b.start, b.end) && (a.mutable || b.mutable)
}
