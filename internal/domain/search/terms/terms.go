// Package terms defines the split of a raw query into positive terms,
// negative terms, and structured filter conditions.
package terms

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted layout for date condition values.
const DateLayout = "2006-01-02"

// Field is a structured condition field from the fixed vocabulary.
type Field string

// Condition field vocabulary.
const (
	DateBefore     Field = "date_before"
	DateAfter      Field = "date_after"
	ValueAbove     Field = "value_above"
	ValueBelow     Field = "value_below"
	RegionIs       Field = "region_is"
	OrganizationIs Field = "organization_is"
)

// IsValid checks if the field belongs to the fixed vocabulary.
func (f Field) IsValid() bool {
	switch f {
	case DateBefore, DateAfter, ValueAbove, ValueBelow, RegionIs, OrganizationIs:
		return true
	}
	return false
}

// IsDate reports whether the field carries a date value.
func (f Field) IsDate() bool { return f == DateBefore || f == DateAfter }

// IsNumeric reports whether the field carries a numeric value.
func (f Field) IsNumeric() bool { return f == ValueAbove || f == ValueBelow }

// IsText reports whether the field carries a text value.
func (f Field) IsText() bool { return f == RegionIs || f == OrganizationIs }

// Condition is a single typed structured filter clause.
type Condition struct {
	field  Field
	date   time.Time
	number float64
	text   string
}

// Coerce validates a raw field/value pair against the vocabulary and builds a
// typed Condition. Unknown fields and unparseable values are errors; the
// caller decides whether to drop the condition or fail.
func Coerce(field, value string) (Condition, error) {
	f := Field(strings.ToLower(strings.TrimSpace(field)))
	if !f.IsValid() {
		return Condition{}, fmt.Errorf("unknown condition field %q", field)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return Condition{}, fmt.Errorf("empty value for condition field %q", f)
	}

	switch {
	case f.IsDate():
		d, err := time.Parse(DateLayout, value)
		if err != nil {
			return Condition{}, fmt.Errorf("parse date %q for field %q: %w", value, f, err)
		}
		return Condition{field: f, date: d}, nil
	case f.IsNumeric():
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("parse number %q for field %q: %w", value, f, err)
		}
		return Condition{field: f, number: n}, nil
	default:
		return Condition{field: f, text: value}, nil
	}
}

// NewDate creates a date condition.
func NewDate(f Field, d time.Time) (Condition, error) {
	if !f.IsDate() {
		return Condition{}, fmt.Errorf("field %q does not take a date", f)
	}
	return Condition{field: f, date: d}, nil
}

// NewNumber creates a numeric condition.
func NewNumber(f Field, n float64) (Condition, error) {
	if !f.IsNumeric() {
		return Condition{}, fmt.Errorf("field %q does not take a number", f)
	}
	return Condition{field: f, number: n}, nil
}

// NewText creates a text condition.
func NewText(f Field, v string) (Condition, error) {
	if !f.IsText() {
		return Condition{}, fmt.Errorf("field %q does not take text", f)
	}
	if strings.TrimSpace(v) == "" {
		return Condition{}, fmt.Errorf("empty value for field %q", f)
	}
	return Condition{field: f, text: v}, nil
}

// Field returns the condition field.
func (c Condition) Field() Field { return c.field }

// Date returns the date value (zero unless the field is a date field).
func (c Condition) Date() time.Time { return c.date }

// Number returns the numeric value (zero unless the field is numeric).
func (c Condition) Number() float64 { return c.number }

// Text returns the text value (empty unless the field is textual).
func (c Condition) Text() string { return c.text }

// Split is the parsed form of a raw query: what is wanted, what is excluded,
// and the structured conditions to filter by.
type Split struct {
	positive   string
	negative   string
	conditions []Condition
}

// NewSplit validates and creates a Split. Positive terms must be non-empty.
func NewSplit(positive, negative string, conditions []Condition) (Split, error) {
	positive = strings.TrimSpace(positive)
	if positive == "" {
		return Split{}, fmt.Errorf("positive terms are required")
	}
	return Split{
		positive:   positive,
		negative:   strings.TrimSpace(negative),
		conditions: conditions,
	}, nil
}

// Positive returns the positive search terms.
func (s Split) Positive() string { return s.positive }

// Negative returns the excluded terms (empty when no negation was present).
func (s Split) Negative() string { return s.negative }

// Conditions returns the structured filter conditions.
func (s Split) Conditions() []Condition { return s.conditions }

// HasNegation reports whether excluded terms are present.
func (s Split) HasNegation() bool { return s.negative != "" }

// HasConditions reports whether structured conditions are present.
func (s Split) HasConditions() bool { return len(s.conditions) > 0 }
