// Package models defines API request/response data structures.
package models

import (
	"github.com/awareness-network/semindex/pkg/asset"
	"github.com/awareness-network/semindex/pkg/index"
)

// SearchRequest is the body of POST /api/v1/index/search. Empty fields do not filter.
type SearchRequest struct {
	// Query is scored against keywords, name and description.
	Query string `json:"query,omitempty" validate:"max=500" example:"solidity reentrancy"`

	// Domain restricts results to one domain.
	Domain string `json:"domain,omitempty" example:"blockchain_security"`

	// TaskType restricts results to one task type.
	TaskType string `json:"taskType,omitempty" example:"code_review"`

	// ModelOrigin restricts results to one source model.
	ModelOrigin string `json:"modelOrigin,omitempty" example:"llama-3-70b"`

	// IsPublic restricts results by visibility when set.
	IsPublic *bool `json:"isPublic,omitempty"`

	// Limit caps the result count (default 20).
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=50" example:"20"`
}

// SearchResponse wraps ranked results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
	Count   int                  `json:"count"`
}

// NewSearchResponse builds a SearchResponse.
func NewSearchResponse(results []index.SearchResult) SearchResponse {
	if results == nil {
		results = []index.SearchResult{}
	}
	return SearchResponse{Results: results, Count: len(results)}
}

// MemoryListResponse wraps unranked memory lists.
type MemoryListResponse struct {
	Memories []*asset.MemoryAsset `json:"memories"`
	Count    int                  `json:"count"`
}

// NewMemoryListResponse builds a MemoryListResponse.
func NewMemoryListResponse(memories []*asset.MemoryAsset) MemoryListResponse {
	if memories == nil {
		memories = []*asset.MemoryAsset{}
	}
	return MemoryListResponse{Memories: memories, Count: len(memories)}
}

// DomainsResponse lists the domain enumeration.
type DomainsResponse struct {
	Domains []asset.Domain `json:"domains"`
}

// TaskTypesResponse lists the task type enumeration.
type TaskTypesResponse struct {
	TaskTypes []asset.TaskType `json:"taskTypes"`
}
