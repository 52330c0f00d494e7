/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package entry

// FilterResult is the three-way outcome of testing a candidate instant
// against a two-sided Filter.
type FilterResult int

const (
	InRange FilterResult = iota
	BeforeRange
	AfterRange
)

func (r FilterResult) String() string {
	switch r {
	case InRange:
		return `InRange`
	case BeforeRange:
		return `BeforeRange`
	case AfterRange:
		return `AfterRange`
	}
	return `Unknown`
}

// SingleBoundResult is the outcome of testing a candidate instant against
// one bound only (used by the journal reader's early-termination check).
type SingleBoundResult int

const (
	Pass SingleBoundResult = iota
	OccursBefore
	OccursAtOrAfter
)

// Filter holds the optional [AfterOrAt, BeforeOrAt] window of §3. The
// caller's contract (not enforced here) is that when both bounds are set,
// AfterOrAt <= BeforeOrAt.
type Filter struct {
	AfterOrAt  OptionalInstant
	BeforeOrAt OptionalInstant
}

// Pass implements the two-sided filter of §3:
//   - pass(x, None, None) == InRange
//   - when both bounds are set: InRange iff after <= x <= before
//   - a single bound behaves as the corresponding half-open range
func (f Filter) Pass(x Instant) FilterResult {
	if f.AfterOrAt.Valid && x < f.AfterOrAt.Instant {
		return BeforeRange
	}
	if f.BeforeOrAt.Valid && x > f.BeforeOrAt.Instant {
		return AfterRange
	}
	return InRange
}

// PassBefore tests x against only the upper bound, returning the
// single-bound result used when a Reader can terminate early on a known
// sorted stream (§3, §4.2 step "single-bound filter").
func (f Filter) PassBefore(x Instant) SingleBoundResult {
	if f.BeforeOrAt.Valid && x >= f.BeforeOrAt.Instant {
		return OccursAtOrAfter
	}
	return Pass
}

// IsZero reports whether neither bound is set.
func (f Filter) IsZero() bool {
	return !f.AfterOrAt.Valid && !f.BeforeOrAt.Valid
}
