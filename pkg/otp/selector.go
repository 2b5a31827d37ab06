package otp

import "time"

// Slot is the code for one time window.
type Slot struct {
	// Code is the zero-padded one-time code.
	Code string
	// SecondsLeft is the number of whole seconds from now until the
	// window closes. Offset 0 yields [0, period); each further offset adds
	// one period.
	SecondsLeft uint
	// Offset is how many whole periods ahead of the current one the
	// window lies.
	Offset uint
}

// SelectSlot returns the current window's slot unless fewer than
// minSecondsLeft seconds remain in it, in which case the next window's slot
// is returned and warned is true.
//
// A minSecondsLeft of zero never looks ahead. A minSecondsLeft at or above
// the period always looks ahead, because SecondsLeft at offset 0 is always
// below the period.
func (g *Generator) SelectSlot(secret []byte, minSecondsLeft uint) (slot Slot, warned bool, err error) {
	if g == nil {
		return Slot{}, false, ErrNilGenerator
	}
	return g.selectAt(secret, g.now(), minSecondsLeft)
}

func (g *Generator) selectAt(secret []byte, at time.Time, minSecondsLeft uint) (Slot, bool, error) {
	slot, err := g.computeAt(secret, at, 0)
	if err != nil {
		return Slot{}, false, err
	}
	if slot.SecondsLeft >= minSecondsLeft {
		return slot, false, nil
	}

	next, err := g.computeAt(secret, at, 1)
	if err != nil {
		return Slot{}, false, err
	}
	return next, true, nil
}

// Listing computes codes for several secrets as of a single instant.
//
// The look-ahead decision is taken once, for the first secret, and the
// resulting offset is reused for every later secret so that all codes of
// one listing belong to the same window.
type Listing struct {
	gen            *Generator
	at             time.Time
	minSecondsLeft uint

	decided bool
	first   Slot
	warned  bool
}

// NewListing samples the clock and returns a Listing bound to that instant.
func (g *Generator) NewListing(minSecondsLeft uint) *Listing {
	l := &Listing{gen: g, minSecondsLeft: minSecondsLeft}
	if g != nil {
		l.at = g.now()
	}
	return l
}

// Next returns the slot for secret.
func (l *Listing) Next(secret []byte) (Slot, error) {
	if l.gen == nil {
		return Slot{}, ErrNilGenerator
	}

	if !l.decided {
		slot, warned, err := l.gen.selectAt(secret, l.at, l.minSecondsLeft)
		if err != nil {
			return Slot{}, err
		}
		l.decided = true
		l.first = slot
		l.warned = warned
		return slot, nil
	}

	return l.gen.computeAt(secret, l.at, l.first.Offset)
}

// First returns the slot chosen for the first secret, if any was processed.
func (l *Listing) First() (Slot, bool) {
	return l.first, l.decided
}

// Offset returns the offset shared by every slot of the listing.
func (l *Listing) Offset() uint {
	return l.first.Offset
}

// Warned reports whether the listing moved to the next window.
func (l *Listing) Warned() bool {
	return l.warned
}
