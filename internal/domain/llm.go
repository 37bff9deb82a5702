package domain

// Understanding is the raw, unvalidated proposal returned by the remote
// text-understanding service. The preprocessor validates it against the fixed
// condition vocabulary before use.
type Understanding struct {
	Positive   string
	Negative   string
	Conditions []RawCondition
}

// RawCondition is one unvalidated condition from the understanding service.
type RawCondition struct {
	Field string
	Value string
}

// Judgment is the judgment service's verdict on one candidate.
type Judgment struct {
	Accept     bool
	Confidence float64 // in [0,1]
}
