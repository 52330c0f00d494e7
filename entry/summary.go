/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package entry

// Summary is the base, additive-counter accounting every Reader's own
// Summary type embeds (§3). Producing a Summary must never mutate the
// Reader: every Reader exposes Summary() as a plain snapshot copy.
type Summary struct {
	Processed  uint64
	Accepted   uint64
	OutOfOrder uint64

	FirstProcessed OptionalInstant
	LastProcessed  OptionalInstant
	FirstAccepted  OptionalInstant
	LastAccepted   OptionalInstant

	// Error holds the last non-fatal, record-level error observed (§7
	// "last error wins"), or the empty string if none occurred.
	Error string
}

// ObserveProcessed folds a processed-but-not-yet-filtered instant into the
// running min/max and increments Processed. Readers call this once per
// record regardless of whether the record is later accepted.
func (s *Summary) ObserveProcessed(i Instant) {
	s.Processed++
	if !s.FirstProcessed.Valid || i < s.FirstProcessed.Instant {
		s.FirstProcessed.Set(i)
	}
	if !s.LastProcessed.Valid || i > s.LastProcessed.Instant {
		s.LastProcessed.Set(i)
	}
}

// ObserveAccepted folds an accepted instant into the running min/max and
// increments Accepted.
func (s *Summary) ObserveAccepted(i Instant) {
	s.Accepted++
	if !s.FirstAccepted.Valid || i < s.FirstAccepted.Instant {
		s.FirstAccepted.Set(i)
	}
	if !s.LastAccepted.Valid || i > s.LastAccepted.Instant {
		s.LastAccepted.Set(i)
	}
}

// SetError records a non-fatal error string, overwriting any prior one
// ("last error wins", §7).
func (s *Summary) SetError(err error) {
	if err != nil {
		s.Error = err.Error()
	}
}
