// Package proposal exposes the Proposal value object and its comparisons.
package proposal

// Proposal is the value object carried through every phase of the Paxos
// protocol. Number is drawn from a proposer's disjoint arithmetic
// progression and is therefore unique and totally ordered across the whole
// cohort; Instance identifies which consensus slot this proposal belongs to;
// Value is opaque to the protocol and is only ever compared for equality.
type Proposal struct {
	Number      int64
	Instance    int64
	ProposerPid int
	Value       any
}

// Zero is the sentinel "no proposal seen yet" value. Its Number of -1 sorts
// below any real proposal number, which start at a pid (>= 0).
var Zero = Proposal{Number: -1}

// GreaterThan reports whether p has a strictly higher Number than other.
func (p Proposal) GreaterThan(other Proposal) bool {
	return p.Number > other.Number
}

// LessThan reports whether p has a strictly lower Number than other.
func (p Proposal) LessThan(other Proposal) bool {
	return p.Number < other.Number
}

// Equal reports whether p and other carry the same Number.
func (p Proposal) Equal(other Proposal) bool {
	return p.Number == other.Number
}

// GreaterOrEqual reports whether p.Number >= other.Number.
func (p Proposal) GreaterOrEqual(other Proposal) bool {
	return p.GreaterThan(other) || p.Equal(other)
}

// LessOrEqual reports whether p.Number <= other.Number.
func (p Proposal) LessOrEqual(other Proposal) bool {
	return p.LessThan(other) || p.Equal(other)
}

// HasValue reports whether the proposal carries a non-nil value.
func (p Proposal) HasValue() bool {
	return p.Value != nil
}
