// Package genesis provides the bootstrap corpus of protocol-owned memory assets.
//
// The corpus is described by a YAML fixture of compact seeds. Each seed is
// expanded by NewAsset into a full, public, free MemoryAsset. A Dataset is
// built once and never mutated, so it is safe for concurrent readers.
package genesis

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/awareness-network/semindex/pkg/asset"
)

// Defaults applied by NewAsset.
const (
	DefaultModelOrigin     = "llama-3-70b"
	DefaultLatentDimension = 4096
	DefaultVersion         = "1.0.0"
	DefaultEpsilon         = 0.005
	DefaultPrice           = "0 AMEM"
	DefaultRating          = 5.0

	// ZeroAddress owns every genesis asset.
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)

var (
	// ErrDuplicateID is returned by Load when two seeds share an id.
	ErrDuplicateID = errors.New("duplicate genesis id")
	// ErrInvalidAsset is returned by Load when an expanded seed fails validation.
	ErrInvalidAsset = errors.New("invalid genesis asset")
)

//go:embed data/genesis.yaml
var fixture []byte

// Seed is the compact description of one genesis asset.
type Seed struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	Description     string         `yaml:"description"`
	Domain          asset.Domain   `yaml:"domain"`
	TaskType        asset.TaskType `yaml:"task_type"`
	Keywords        []string       `yaml:"keywords"`
	ModelOrigin     string         `yaml:"model_origin,omitempty"`
	LatentDimension int            `yaml:"latent_dimension,omitempty"`
	UsageCount      int            `yaml:"usage_count,omitempty"`
}

type fixtureFile struct {
	Assets []Seed `yaml:"assets"`
}

// NewAsset expands a seed into a public, free MemoryAsset.
// Zero ModelOrigin and LatentDimension fall back to the defaults.
func NewAsset(seed Seed, createdAt time.Time) *asset.MemoryAsset {
	model := seed.ModelOrigin
	if model == "" {
		model = DefaultModelOrigin
	}
	dim := seed.LatentDimension
	if dim == 0 {
		dim = DefaultLatentDimension
	}

	return asset.New(
		asset.Identification{
			Name:        seed.Name,
			Description: seed.Description,
			Version:     DefaultVersion,
			ID:          seed.ID,
		},
		asset.LatentSpec{
			ModelOrigin:          model,
			LatentDimension:      dim,
			WMatrixVersion:       asset.WMatrixV1Standard,
			AlignmentLossEpsilon: DefaultEpsilon,
			CompressionType:      asset.CompressionNone,
		},
		asset.SemanticContext{
			Keywords:      append([]string(nil), seed.Keywords...),
			Domain:        seed.Domain,
			TaskType:      seed.TaskType,
			AIDescription: seed.Description,
		},
		asset.AccessControl{
			IsPublic:         true,
			EncryptedCID:     "ipfs://genesis-" + seed.ID,
			PricePerCall:     DefaultPrice,
			OwnerAgentTBA:    ZeroAddress,
			SubscriptionTier: asset.TierFree,
		},
		asset.Provenance{
			ParentMemory:  nil,
			CreatedAt:     createdAt,
			UsageCount:    seed.UsageCount,
			AverageRating: asset.Ptr(DefaultRating),
			RatingCount:   asset.Ptr(0),
		},
	)
}

// Dataset is an immutable, ordered collection of assets.
// Returned assets are shared and must not be modified; use Clone for a copy.
type Dataset struct {
	assets []*asset.MemoryAsset
	byID   map[string]*asset.MemoryAsset
}

// Load parses a YAML fixture and expands every seed.
func Load(r io.Reader, createdAt time.Time) (*Dataset, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode genesis fixture: %w", err)
	}
	return FromSeeds(f.Assets, createdAt)
}

// LoadFile loads a fixture from disk.
func LoadFile(path string, createdAt time.Time) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genesis fixture: %w", err)
	}
	defer f.Close()
	return Load(f, createdAt)
}

// FromSeeds builds a dataset from seeds in order.
func FromSeeds(seeds []Seed, createdAt time.Time) (*Dataset, error) {
	ds := &Dataset{
		assets: make([]*asset.MemoryAsset, 0, len(seeds)),
		byID:   make(map[string]*asset.MemoryAsset, len(seeds)),
	}
	for i, seed := range seeds {
		if _, exists := ds.byID[seed.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, seed.ID)
		}
		a := NewAsset(seed, createdAt)
		if res := asset.Validate(a); !res.Valid {
			return nil, fmt.Errorf("%w: entry %d (%s): %s", ErrInvalidAsset, i, seed.ID, strings.Join(res.Errors, "; "))
		}
		ds.assets = append(ds.assets, a)
		ds.byID[seed.ID] = a
	}
	return ds, nil
}

var defaultDataset = sync.OnceValue(func() *Dataset {
	ds, err := Load(bytes.NewReader(fixture), time.Now().UTC())
	if err != nil {
		panic(fmt.Sprintf("genesis: embedded fixture is invalid: %v", err))
	}
	return ds
})

// Default returns the embedded 100-asset genesis corpus. It is built on first
// use and shared afterwards.
func Default() *Dataset {
	return defaultDataset()
}

// All returns every asset in dataset order.
func (d *Dataset) All() []*asset.MemoryAsset {
	return append([]*asset.MemoryAsset(nil), d.assets...)
}

// Len returns the number of assets.
func (d *Dataset) Len() int {
	return len(d.assets)
}

// Get returns the asset with the given id.
func (d *Dataset) Get(id string) (*asset.MemoryAsset, bool) {
	a, ok := d.byID[id]
	return a, ok
}

// Search returns assets whose name, description or any keyword contains
// keyword, case-insensitively, in dataset order.
func (d *Dataset) Search(keyword string) []*asset.MemoryAsset {
	needle := strings.ToLower(keyword)
	out := make([]*asset.MemoryAsset, 0)
	for _, a := range d.assets {
		if matchesKeyword(a, needle) {
			out = append(out, a)
		}
	}
	return out
}

func matchesKeyword(a *asset.MemoryAsset, needle string) bool {
	if strings.Contains(strings.ToLower(a.Identification.Name), needle) ||
		strings.Contains(strings.ToLower(a.Identification.Description), needle) {
		return true
	}
	for _, k := range a.SemanticContext.Keywords {
		if strings.Contains(strings.ToLower(k), needle) {
			return true
		}
	}
	return false
}
