package genesis

import "github.com/awareness-network/semindex/pkg/asset"

// Category is a coarse grouping label used to browse the genesis corpus.
type Category string

const (
	CategoryGeneralReasoning   Category = "general_reasoning"
	CategoryCodeGeneration     Category = "code_generation"
	CategoryBlockchainSecurity Category = "blockchain_security"
	CategoryLegalAnalysis      Category = "legal_analysis"
	CategoryScientificResearch Category = "scientific_research"
	CategoryCreativeWriting    Category = "creative_writing"
	CategoryDataAnalysis       Category = "data_analysis"
	CategoryMathematics        Category = "mathematics"
	CategoryNaturalLanguage    Category = "natural_language"
	CategoryPlanning           Category = "planning"
)

var categories = []Category{
	CategoryGeneralReasoning,
	CategoryCodeGeneration,
	CategoryBlockchainSecurity,
	CategoryLegalAnalysis,
	CategoryScientificResearch,
	CategoryCreativeWriting,
	CategoryDataAnalysis,
	CategoryMathematics,
	CategoryNaturalLanguage,
	CategoryPlanning,
}

// categoryValues maps a category to the domain and task type values it
// covers. An asset matches when either its domain or its task type is listed.
var categoryValues = map[Category][]string{
	CategoryGeneralReasoning:   {string(asset.DomainGeneralReasoning)},
	CategoryCodeGeneration:     {string(asset.DomainCodeGeneration)},
	CategoryBlockchainSecurity: {string(asset.DomainBlockchainSecurity)},
	CategoryLegalAnalysis:      {string(asset.DomainLegalAnalysis)},
	CategoryScientificResearch: {string(asset.DomainScientificResearch)},
	CategoryCreativeWriting:    {string(asset.DomainCreativeWriting)},
	CategoryDataAnalysis:       {string(asset.DomainDataAnalysis)},
	CategoryMathematics:        {string(asset.DomainMathematics)},
	CategoryNaturalLanguage:    {string(asset.DomainNaturalLanguageProcessing)},
	CategoryPlanning:           {string(asset.TaskPlanningAndExecution)},
}

// Categories returns the category labels in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// IsCategory reports whether s is a known category label.
func IsCategory(s string) bool {
	_, ok := categoryValues[Category(s)]
	return ok
}

// ByCategory returns the assets whose domain or task type falls in the
// category, in dataset order. Unknown categories yield an empty slice.
func (d *Dataset) ByCategory(c Category) []*asset.MemoryAsset {
	values := categoryValues[c]
	out := make([]*asset.MemoryAsset, 0)
	if len(values) == 0 {
		return out
	}
	for _, a := range d.assets {
		if containsString(values, string(a.SemanticContext.Domain)) ||
			containsString(values, string(a.SemanticContext.TaskType)) {
			out = append(out, a)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
