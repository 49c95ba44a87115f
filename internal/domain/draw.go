// Package domain defines the canonical draw record shared by parsers,
// the sync pipeline, and storage.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain bounds for Australian Powerball numbers.
const (
	// MainCount is the number of main numbers in a draw.
	MainCount = 7
	// MainMax is the largest valid main number.
	MainMax = 35
	// PowerballMax is the largest valid Powerball number.
	PowerballMax = 20
)

// DateLayout is the ISO 8601 date format used for draw dates on the wire
// and in storage.
const DateLayout = "2006-01-02"

// Validation errors returned by Draw.Validate.
var (
	ErrInvalidDrawNo   = errors.New("draw number must be positive")
	ErrInvalidDrawDate = errors.New("draw date is missing or invalid")
	ErrWrongMainCount  = errors.New("draw must have exactly 7 main numbers")
	ErrDuplicateMain   = errors.New("main numbers must be distinct")
	ErrMainOutOfRange  = errors.New("main number out of range")
	ErrPowerballRange  = errors.New("powerball out of range")
)

// Draw is one lottery draw result: seven main numbers plus a Powerball.
// DrawNo is the identity key for idempotent upserts; SourceURL records
// which upstream produced the record and is informational only.
type Draw struct {
	DrawNo    int       `db:"draw_no"    json:"draw_no"`
	DrawDate  time.Time `db:"draw_date"  json:"draw_date"`
	Mains     []int     `db:"-"          json:"nums"`
	Powerball int       `db:"powerball"  json:"powerball"`
	SourceURL string    `db:"source_url" json:"source_url,omitempty"`
}

// Rules holds the number-domain bounds a draw is validated against.
// The defaults match the observed provider; callers may override them
// from configuration.
type Rules struct {
	MainCount    int
	MainMax      int
	PowerballMax int
}

// DefaultRules returns the standard Australian Powerball bounds.
func DefaultRules() Rules {
	return Rules{
		MainCount:    MainCount,
		MainMax:      MainMax,
		PowerballMax: PowerballMax,
	}
}

// Validate checks the draw against the default domain invariants. A draw
// failing validation must never reach storage.
func (d *Draw) Validate() error {
	return d.ValidateWith(DefaultRules())
}

// ValidateWith checks the draw against the given bounds.
func (d *Draw) ValidateWith(rules Rules) error {
	if d.DrawNo <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDrawNo, d.DrawNo)
	}

	if d.DrawDate.IsZero() {
		return ErrInvalidDrawDate
	}

	if len(d.Mains) != rules.MainCount {
		return fmt.Errorf("%w: got %d", ErrWrongMainCount, len(d.Mains))
	}

	seen := make(map[int]bool, rules.MainCount)
	for _, n := range d.Mains {
		if n < 1 || n > rules.MainMax {
			return fmt.Errorf("%w: %d", ErrMainOutOfRange, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: %d", ErrDuplicateMain, n)
		}
		seen[n] = true
	}

	if d.Powerball < 1 || d.Powerball > rules.PowerballMax {
		return fmt.Errorf("%w: %d", ErrPowerballRange, d.Powerball)
	}

	return nil
}

// DateString returns the draw date in ISO 8601 form.
func (d *Draw) DateString() string {
	return d.DrawDate.Format(DateLayout)
}
