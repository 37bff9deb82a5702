// Package order defines the ordering keys for final result ranking.
package order

// Key is the ordering key for ranked results.
type Key string

// Key constants.
const (
	// Similarity orders by the computed score, descending.
	Similarity Key = "similarity"
	// Date orders by signing date, descending, records without a date last.
	Date Key = "date"
	// Value orders by final contract value, descending, records without a value last.
	Value Key = "value"
)

// IsValid checks if the key is one of the supported values.
func (k Key) IsValid() bool {
	return k == Similarity || k == Date || k == Value
}
