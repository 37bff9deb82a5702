package db

// VectorQuery is the input for KNN vector similarity search.
type VectorQuery struct {
	Index        string
	Filters      Filter
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for full-text search. Negative is translated into an
// outright exclusion predicate, not a down-weight.
type TextQuery struct {
	Index        string
	Positive     string
	Negative     string
	Filters      Filter
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
