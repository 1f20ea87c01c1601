// Package index implements discovery over the memory corpus: keyword scoring,
// topic/domain/task lookups, filtered search, the usage leaderboard and
// network statistics.
//
// A Service is read-only with respect to the dataset and safe for concurrent
// use. Results with equal scores always keep dataset order.
package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/awareness-network/semindex/pkg/asset"
	"github.com/awareness-network/semindex/pkg/genesis"
)

// MatchType tells how a search result was found.
type MatchType string

const (
	MatchKeyword  MatchType = "keyword"
	MatchDomain   MatchType = "domain"
	MatchTask     MatchType = "task"
	MatchSemantic MatchType = "semantic"
	// MatchFilter tags filter-only search results when enabled with WithTagFilterMatches.
	MatchFilter MatchType = "filter"
)

// Default result limits.
const (
	DefaultTopicLimit       = 10
	DefaultSearchLimit      = 20
	DefaultLeaderboardLimit = 10
	DefaultGenesisLimit     = 100

	// MinTopicScore is the exclusive lower bound for FindByTopic results.
	MinTopicScore = 0.1
	// FilterOnlyScore is the flat score given to Search results without a query.
	FilterOnlyScore = 0.5
)

// SearchResult is one ranked hit.
type SearchResult struct {
	Memory         *asset.MemoryAsset `json:"memory"`
	RelevanceScore float64            `json:"relevance_score"`
	MatchType      MatchType          `json:"match_type"`
}

// SearchParams controls Search. Empty fields do not filter.
type SearchParams struct {
	Query       string
	Domain      asset.Domain
	TaskType    asset.TaskType
	ModelOrigin string
	IsPublic    *bool
	Limit       int
}

// Stats summarizes the network.
type Stats struct {
	TotalMemories   int `json:"total_memories"`
	PublicMemories  int `json:"public_memories"`
	TotalAgents     int `json:"total_agents"`
	TotalDomains    int `json:"total_domains"`
	TotalTaskTypes  int `json:"total_task_types"`
	SupportedModels int `json:"supported_models"`
}

// AgentCounter reports the number of registered agents.
type AgentCounter interface {
	Count(ctx context.Context) (int, error)
}

// Observer receives the latency and result count of every operation.
type Observer interface {
	ObserveIndexOperation(operation string, duration time.Duration, results int)
}

// Service answers discovery queries over an immutable dataset.
type Service struct {
	dataset          *genesis.Dataset
	agents           AgentCounter
	observer         Observer
	tagFilterMatches bool
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithTagFilterMatches makes Search tag results found without a query as
// MatchFilter instead of MatchSemantic.
func WithTagFilterMatches(enabled bool) Option {
	return func(s *Service) {
		s.tagFilterMatches = enabled
	}
}

// New creates a Service over dataset. agents may be nil, in which case the
// agent count in Stats is zero.
func New(dataset *genesis.Dataset, agents AgentCounter, opts ...Option) *Service {
	s := &Service{
		dataset: dataset,
		agents:  agents,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dataset returns the underlying dataset.
func (s *Service) Dataset() *genesis.Dataset {
	return s.dataset
}

func (s *Service) observe(op string, start time.Time, results int) {
	if s.observer != nil {
		s.observer.ObserveIndexOperation(op, time.Since(start), results)
	}
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func sortByScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
}

// FindByTopic ranks every asset by KeywordScore against topic and keeps those
// scoring above MinTopicScore.
func (s *Service) FindByTopic(topic string, limit int) []SearchResult {
	start := time.Now()
	limit = limitOr(limit, DefaultTopicLimit)

	results := make([]SearchResult, 0)
	for _, a := range s.dataset.All() {
		score := KeywordScore(topic, a)
		if score > MinTopicScore {
			results = append(results, SearchResult{Memory: a, RelevanceScore: score, MatchType: MatchKeyword})
		}
	}
	sortByScore(results)
	results = truncate(results, limit)

	s.observe("find_by_topic", start, len(results))
	return results
}

// FindByDomain returns assets in domain, in dataset order, each scored 1.
func (s *Service) FindByDomain(domain asset.Domain, limit int) []SearchResult {
	start := time.Now()
	limit = limitOr(limit, DefaultTopicLimit)

	results := make([]SearchResult, 0)
	for _, a := range s.dataset.All() {
		if a.SemanticContext.Domain == domain {
			results = append(results, SearchResult{Memory: a, RelevanceScore: 1.0, MatchType: MatchDomain})
		}
	}
	results = truncate(results, limit)

	s.observe("find_by_domain", start, len(results))
	return results
}

// FindByTask returns assets with the task type, in dataset order, each scored 1.
func (s *Service) FindByTask(taskType asset.TaskType, limit int) []SearchResult {
	start := time.Now()
	limit = limitOr(limit, DefaultTopicLimit)

	results := make([]SearchResult, 0)
	for _, a := range s.dataset.All() {
		if a.SemanticContext.TaskType == taskType {
			results = append(results, SearchResult{Memory: a, RelevanceScore: 1.0, MatchType: MatchTask})
		}
	}
	results = truncate(results, limit)

	s.observe("find_by_task", start, len(results))
	return results
}

// Search filters by domain, task type, model origin and visibility in that
// order, then scores candidates by query or FilterOnlyScore when the query is
// empty. Zero scores are dropped.
func (s *Service) Search(params SearchParams) []SearchResult {
	start := time.Now()
	limit := limitOr(params.Limit, DefaultSearchLimit)

	matchType := MatchSemantic
	if params.Query == "" && s.tagFilterMatches {
		matchType = MatchFilter
	}

	results := make([]SearchResult, 0)
	for _, a := range s.dataset.All() {
		if params.Domain != "" && a.SemanticContext.Domain != params.Domain {
			continue
		}
		if params.TaskType != "" && a.SemanticContext.TaskType != params.TaskType {
			continue
		}
		if params.ModelOrigin != "" && a.TechnicalSpec.ModelOrigin != params.ModelOrigin {
			continue
		}
		if params.IsPublic != nil && a.AccessControl.IsPublic != *params.IsPublic {
			continue
		}

		score := FilterOnlyScore
		if params.Query != "" {
			score = KeywordScore(params.Query, a)
		}
		if score > 0 {
			results = append(results, SearchResult{Memory: a, RelevanceScore: score, MatchType: matchType})
		}
	}
	sortByScore(results)
	results = truncate(results, limit)

	s.observe("search", start, len(results))
	return results
}

// Leaderboard returns assets by usage count, most used first.
func (s *Service) Leaderboard(limit int) []*asset.MemoryAsset {
	start := time.Now()
	limit = limitOr(limit, DefaultLeaderboardLimit)

	assets := s.dataset.All()
	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].Provenance.UsageCount > assets[j].Provenance.UsageCount
	})
	assets = truncate(assets, limit)

	s.observe("leaderboard", start, len(assets))
	return assets
}

// Stats counts memories, agents and the distinct domains, task types and
// models present in the dataset.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	start := time.Now()

	domains := make(map[asset.Domain]struct{})
	tasks := make(map[asset.TaskType]struct{})
	models := make(map[string]struct{})

	stats := Stats{TotalMemories: s.dataset.Len()}
	for _, a := range s.dataset.All() {
		if a.AccessControl.IsPublic {
			stats.PublicMemories++
		}
		domains[a.SemanticContext.Domain] = struct{}{}
		tasks[a.SemanticContext.TaskType] = struct{}{}
		models[a.TechnicalSpec.ModelOrigin] = struct{}{}
	}
	stats.TotalDomains = len(domains)
	stats.TotalTaskTypes = len(tasks)
	stats.SupportedModels = len(models)

	if s.agents != nil {
		n, err := s.agents.Count(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("count agents: %w", err)
		}
		stats.TotalAgents = n
	}

	s.observe("stats", start, 1)
	return stats, nil
}

// Domains returns the fixed domain enumeration, independent of the dataset.
func (s *Service) Domains() []asset.Domain {
	return asset.Domains()
}

// TaskTypes returns the fixed task type enumeration, independent of the dataset.
func (s *Service) TaskTypes() []asset.TaskType {
	return asset.TaskTypes()
}

// Genesis returns the first limit assets in dataset order.
func (s *Service) Genesis(limit int) []*asset.MemoryAsset {
	start := time.Now()
	assets := truncate(s.dataset.All(), limitOr(limit, DefaultGenesisLimit))
	s.observe("genesis", start, len(assets))
	return assets
}

// GenesisByCategory returns assets in a coarse category.
func (s *Service) GenesisByCategory(c genesis.Category) []*asset.MemoryAsset {
	start := time.Now()
	assets := s.dataset.ByCategory(c)
	s.observe("genesis_by_category", start, len(assets))
	return assets
}

// SearchGenesis returns assets matching keyword by substring, unranked.
func (s *Service) SearchGenesis(keyword string) []*asset.MemoryAsset {
	start := time.Now()
	assets := s.dataset.Search(keyword)
	s.observe("search_genesis", start, len(assets))
	return assets
}

// Get returns the asset with the given id.
func (s *Service) Get(id string) (*asset.MemoryAsset, bool) {
	return s.dataset.Get(id)
}
