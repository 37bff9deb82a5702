// Package record defines the per-query snapshot of a procurement notice.
package record

import (
	"fmt"
	"time"
)

// Record is the subset of a procurement notice needed for ranking and
// presentation. It is fetched fresh per query and never cached across calls.
type Record struct {
	id           string
	description  string
	organization string
	region       string
	categoryID   string
	signingDate  time.Time // zero = unknown
	finalValue   float64   // 0 = unknown
	expired      bool
}

// New validates and creates a Record.
func New(
	id, description, organization, region, categoryID string,
	signingDate time.Time, finalValue float64, expired bool,
) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	if description == "" {
		return Record{}, fmt.Errorf("record %s has no description", id)
	}
	return Record{
		id:           id,
		description:  description,
		organization: organization,
		region:       region,
		categoryID:   categoryID,
		signingDate:  signingDate,
		finalValue:   finalValue,
		expired:      expired,
	}, nil
}

// ID returns the notice identifier.
func (r Record) ID() string { return r.id }

// Description returns the raw matching text of the notice.
func (r Record) Description() string { return r.description }

// Organization returns the contracting organization.
func (r Record) Organization() string { return r.organization }

// Region returns the geographic region tag.
func (r Record) Region() string { return r.region }

// CategoryID returns the identifier of the record's assigned taxonomy category.
func (r Record) CategoryID() string { return r.categoryID }

// SigningDate returns the contract signing date (zero when unknown).
func (r Record) SigningDate() time.Time { return r.signingDate }

// HasSigningDate reports whether the signing date is known.
func (r Record) HasSigningDate() bool { return !r.signingDate.IsZero() }

// FinalValue returns the final contract value (0 when unknown).
func (r Record) FinalValue() float64 { return r.finalValue }

// HasFinalValue reports whether the final contract value is known.
func (r Record) HasFinalValue() bool { return r.finalValue > 0 }

// Expired reports whether the notice is past its validity window.
func (r Record) Expired() bool { return r.expired }
