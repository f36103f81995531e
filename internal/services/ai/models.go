package ai

import "sort"

// DefaultModel is the model used when none is requested and the fallback target on failure
const DefaultModel = "gpt-3.5-turbo"

// ModelInfo describes a selectable model
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxTokens   int    `json:"max_tokens"`
	Default     bool   `json:"default"`
}

var availableModels = map[string]ModelInfo{
	"gpt-3.5-turbo": {
		ID:          "gpt-3.5-turbo",
		Name:        "GPT-3.5 Turbo",
		Description: "Fast and efficient for most assignments",
		MaxTokens:   2000,
	},
	"gpt-4o": {
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Description: "Latest and most advanced model with superior understanding",
		MaxTokens:   4000,
	},
	"gpt-4-turbo": {
		ID:          "gpt-4-turbo",
		Name:        "GPT-4 Turbo",
		Description: "Powerful model for complex assignments",
		MaxTokens:   4000,
	},
	"gpt-4": {
		ID:          "gpt-4",
		Name:        "GPT-4",
		Description: "Strong reasoning capabilities for detailed analysis",
		MaxTokens:   4000,
	},
}

// LookupModel returns the catalog entry for id
func LookupModel(id string) (ModelInfo, bool) {
	m, ok := availableModels[id]
	return m, ok
}

// AvailableModels returns the model catalog sorted by ID, marking defaultModel
func AvailableModels(defaultModel string) []ModelInfo {
	defaultModel = ResolveModel("", defaultModel)
	out := make([]ModelInfo, 0, len(availableModels))
	for _, m := range availableModels {
		m.Default = m.ID == defaultModel
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveModel maps a requested model to a catalog entry. Empty or unknown
// requests resolve to defaultModel, or to DefaultModel when that is not in the catalog either.
func ResolveModel(requested, defaultModel string) string {
	if _, ok := availableModels[requested]; ok {
		return requested
	}
	if _, ok := availableModels[defaultModel]; ok {
		return defaultModel
	}
	return DefaultModel
}

// MaxTokensFor returns the completion budget for a model
func MaxTokensFor(model string) int {
	if m, ok := availableModels[model]; ok {
		return m.MaxTokens
	}
	return availableModels[DefaultModel].MaxTokens
}
