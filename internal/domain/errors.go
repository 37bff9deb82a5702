package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed search query; no collaborator call is made.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrCollaboratorUnavailable signals a remote service timeout or failure.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrSearchFailed signals a data-store failure fatal to the search.
	ErrSearchFailed = errors.New("search failed")
	// ErrSchemaViolation signals a collaborator response breaking its contract.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingInvalidInput signals input rejected by the embedding provider.
	ErrEmbeddingInvalidInput = errors.New("embedding input invalid")
	// ErrJudgeUnavailable signals a judgment service failure or open breaker.
	ErrJudgeUnavailable = errors.New("judgment service unavailable")
	// ErrTaxonomyEmpty signals that no categories are loaded for routing.
	ErrTaxonomyEmpty = errors.New("taxonomy is empty")
)
