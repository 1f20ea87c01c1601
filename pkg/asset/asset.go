// Package asset defines the Awareness memory asset record: the JSON-LD metadata
// that describes one tradeable memory capsule, its closed vocabularies, and
// structural validation.
package asset

import (
	"time"
)

// JSON-LD namespaces carried in every asset's "@context".
const (
	NamespaceAwareness = "https://awareness.market/ns#"
	NamespaceSchema    = "https://schema.org/"
	NamespaceDC        = "http://purl.org/dc/elements/1.1/"

	// TypeMemoryAsset is the JSON-LD "@type" of a MemoryAsset.
	TypeMemoryAsset = "awareness:MemoryAsset"
	// TypeLatentSpec is the JSON-LD "@type" of a LatentSpec.
	TypeLatentSpec = "awareness:LatentSpec"
)

// Context is the JSON-LD context block.
type Context struct {
	Awareness string `json:"awareness" yaml:"awareness"`
	Schema    string `json:"schema" yaml:"schema"`
	DC        string `json:"dc" yaml:"dc"`
}

// DefaultContext returns the Awareness JSON-LD context.
func DefaultContext() Context {
	return Context{
		Awareness: NamespaceAwareness,
		Schema:    NamespaceSchema,
		DC:        NamespaceDC,
	}
}

// MemoryAsset is one tradeable memory capsule.
//
// Assets are immutable once constructed: nothing in this module updates an
// asset in place, and readers that need a private copy use Clone.
type MemoryAsset struct {
	Context Context `json:"@context" yaml:"-"`
	Type    string  `json:"@type" yaml:"-"`

	// Identification is the human-facing metadata.
	Identification Identification `json:"identification" yaml:"identification"`

	// TechnicalSpec describes the latent representation.
	TechnicalSpec LatentSpec `json:"technical_spec" yaml:"technical_spec"`

	// SemanticContext drives discovery and search.
	SemanticContext SemanticContext `json:"semantic_context" yaml:"semantic_context"`

	// AccessControl holds visibility and pricing.
	AccessControl AccessControl `json:"access_control" yaml:"access_control"`

	// Provenance tracks lineage and usage.
	Provenance Provenance `json:"provenance" yaml:"provenance"`
}

// Identification holds name, description and version of an asset.
type Identification struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
	Version     string `json:"version" yaml:"version" validate:"required"`
	// ID is unique within a dataset (NFT token ID or UUID).
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
}

// LatentSpec describes the shape and format of the latent memory.
type LatentSpec struct {
	Type string `json:"@type" yaml:"-"`

	// ModelOrigin is the model that produced the memory.
	ModelOrigin string `json:"model_origin" yaml:"model_origin" validate:"required"`

	// LatentDimension is the dimension of the latent vector.
	LatentDimension int `json:"latent_dimension" yaml:"latent_dimension" validate:"gt=0"`

	// WMatrixVersion is the alignment matrix version.
	WMatrixVersion WMatrixVersion `json:"w_matrix_version" yaml:"w_matrix_version" validate:"required"`

	// AlignmentLossEpsilon is the alignment loss, lower is better.
	AlignmentLossEpsilon float64 `json:"alignment_loss_epsilon" yaml:"alignment_loss_epsilon" validate:"gte=0,lte=1"`

	CompressionType CompressionType `json:"compression_type" yaml:"compression_type"`

	// KVCacheLayers is the number of KV-cache layers for reasoning chains.
	KVCacheLayers *int `json:"kv_cache_layers,omitempty" yaml:"kv_cache_layers,omitempty"`

	// OriginalTokenCount is the token count of the source context.
	OriginalTokenCount *int `json:"original_token_count,omitempty" yaml:"original_token_count,omitempty"`
}

// SemanticContext is the discovery metadata of an asset.
type SemanticContext struct {
	// Keywords are ordered search terms; never empty.
	Keywords []string `json:"keywords" yaml:"keywords" validate:"gt=0"`

	Domain   Domain   `json:"domain" yaml:"domain" validate:"required"`
	TaskType TaskType `json:"task_type" yaml:"task_type" validate:"required"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// AIDescription is a natural language description for RAG systems.
	AIDescription string `json:"ai_description,omitempty" yaml:"ai_description,omitempty"`
}

// AccessControl holds visibility, storage pointer and pricing.
type AccessControl struct {
	IsPublic bool `json:"is_public" yaml:"is_public"`

	// EncryptedCID is an opaque pointer to the encrypted payload.
	EncryptedCID string `json:"encrypted_cid" yaml:"encrypted_cid" validate:"required"`

	// PricePerCall is a token amount such as "0.5 AMEM".
	PricePerCall string `json:"price_per_call" yaml:"price_per_call" validate:"required"`

	// OwnerAgentTBA is the token bound account of the owner.
	OwnerAgentTBA string `json:"owner_agent_tba" yaml:"owner_agent_tba" validate:"required"`

	SubscriptionTier SubscriptionTier `json:"subscription_tier,omitempty" yaml:"subscription_tier,omitempty"`
}

// Provenance tracks lineage and usage of an asset.
type Provenance struct {
	// ParentMemory is the id of the asset this one derives from; nil for originals.
	ParentMemory *string `json:"parent_memory" yaml:"parent_memory"`

	CreatedAt  time.Time `json:"created_at" yaml:"created_at" validate:"required"`
	UsageCount int       `json:"usage_count" yaml:"usage_count" validate:"gte=0"`

	AverageRating *float64 `json:"average_rating,omitempty" yaml:"average_rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	RatingCount   *int     `json:"rating_count,omitempty" yaml:"rating_count,omitempty" validate:"omitempty,gte=0"`
}

// New assembles a MemoryAsset and stamps the JSON-LD header fields.
func New(id Identification, spec LatentSpec, sem SemanticContext, access AccessControl, prov Provenance) *MemoryAsset {
	spec.Type = TypeLatentSpec
	return &MemoryAsset{
		Context:         DefaultContext(),
		Type:            TypeMemoryAsset,
		Identification:  id,
		TechnicalSpec:   spec,
		SemanticContext: sem,
		AccessControl:   access,
		Provenance:      prov,
	}
}

// ID returns the asset identifier.
func (a *MemoryAsset) ID() string {
	return a.Identification.ID
}

// Clone returns a deep copy of the asset.
func (a *MemoryAsset) Clone() *MemoryAsset {
	if a == nil {
		return nil
	}
	clone := *a
	clone.SemanticContext.Keywords = cloneStrings(a.SemanticContext.Keywords)
	clone.SemanticContext.Tags = cloneStrings(a.SemanticContext.Tags)
	clone.TechnicalSpec.KVCacheLayers = clonePtr(a.TechnicalSpec.KVCacheLayers)
	clone.TechnicalSpec.OriginalTokenCount = clonePtr(a.TechnicalSpec.OriginalTokenCount)
	clone.Provenance.ParentMemory = clonePtr(a.Provenance.ParentMemory)
	clone.Provenance.AverageRating = clonePtr(a.Provenance.AverageRating)
	clone.Provenance.RatingCount = clonePtr(a.Provenance.RatingCount)
	return &clone
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v. Handy for the optional fields.
func Ptr[T any](v T) *T {
	return &v
}
