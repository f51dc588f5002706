package refdata

import (
	"errors"
	"fmt"
)

// LiveState is the persisted lifecycle flag of an instrument.
type LiveState int

// StateCodes maps lifecycle states to the values stored by the reference
// database. Delisted states are terminal.
type StateCodes struct {
	Live    LiveState
	Expired LiveState
	Removed LiveState
}

func DefaultStateCodes() StateCodes {
	return StateCodes{Live: 1, Expired: 2, Removed: 3}
}

func (c StateCodes) Validate() error {
	if c.Live <= 0 || c.Expired <= 0 || c.Removed <= 0 {
		return errors.New("state codes must be positive")
	}
	if c.Live == c.Expired || c.Live == c.Removed || c.Expired == c.Removed {
		return fmt.Errorf("state codes must be distinct: live=%d expired=%d removed=%d", c.Live, c.Expired, c.Removed)
	}
	return nil
}

func (c StateCodes) IsLive(s LiveState) bool {
	return s == c.Live
}

// Known reports whether s is one of the configured states.
func (c StateCodes) Known(s LiveState) bool {
	return s == c.Live || s == c.Expired || s == c.Removed
}

// DeactivationTarget is the state a live instrument moves to once it
// disappears from its exchange listing.
func (c StateCodes) DeactivationTarget(t InstrumentType) LiveState {
	if t == FutureType {
		return c.Expired
	}
	return c.Removed
}

func (c StateCodes) Label(s LiveState) string {
	switch s {
	case c.Live:
		return "live"
	case c.Expired:
		return "delisted-expired"
	case c.Removed:
		return "delisted-removed"
	default:
		return fmt.Sprintf("state-%d", int(s))
	}
}
