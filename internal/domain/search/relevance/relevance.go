// Package relevance defines the strictness levels of the post-hoc judgment pass.
package relevance

// Level is the strictness of the relevance filter.
type Level string

// Level constants.
const (
	// None skips the judgment pass entirely.
	None Level = "none"
	// Flexible accepts candidates at a lenient confidence threshold.
	Flexible Level = "flexible"
	// Restrictive accepts candidates at a strict confidence threshold.
	Restrictive Level = "restrictive"
)

// IsValid checks if the level is one of the supported values.
func (l Level) IsValid() bool {
	return l == None || l == Flexible || l == Restrictive
}
