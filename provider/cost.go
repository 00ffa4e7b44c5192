package provider

import "github.com/themsquared/agent-playground/internal/util"

// Per-1K-token pricing tables. OpenAI and Anthropic figures follow the
// published February 2024 price lists; Grok figures are estimates. Models
// absent from a table are priced at zero.
var (
	openaiCosts = map[string]modelPricing{
		"gpt-4-vision-preview": {Input: 0.01, Output: 0.03},
		"gpt-4-0125-preview":   {Input: 0.01, Output: 0.03},
		"gpt-4-1106-preview":   {Input: 0.01, Output: 0.03},
		"gpt-4":                {Input: 0.03, Output: 0.06},
		"gpt-3.5-turbo-0125":   {Input: 0.0005, Output: 0.0015},
		"gpt-3.5-turbo":        {Input: 0.0005, Output: 0.0015},
		"gpt-3.5-turbo-16k":    {Input: 0.003, Output: 0.004},
	}

	anthropicCosts = map[string]modelPricing{
		"claude-3-opus-20240229":   {Input: 0.015, Output: 0.075},
		"claude-3-sonnet-20240229": {Input: 0.003, Output: 0.015},
		"claude-3-haiku-20240307":  {Input: 0.0005, Output: 0.0025},
		"claude-2.1":               {Input: 0.008, Output: 0.024},
	}

	grokCosts = map[string]modelPricing{
		"grok-1":     {Input: 0.002, Output: 0.006},
		"grok-1-pro": {Input: 0.005, Output: 0.015},
	}
)

type modelPricing struct {
	Input  float64 // USD per 1K prompt tokens
	Output float64 // USD per 1K completion tokens
}

var costTables = map[string]map[string]modelPricing{
	"openai":    openaiCosts,
	"anthropic": anthropicCosts,
	"grok":      grokCosts,
	// ollama runs locally; every model prices at zero via table miss.
	"ollama": {},
}

// Cost breaks down the estimated USD spend of one call.
type Cost struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// CalculateCost estimates the USD cost of a call from token usage. Unknown
// providers and unknown models cost zero rather than erroring, so cost
// accounting never blocks a response. All figures are rounded to six decimal
// places.
func CalculateCost(providerName, model string, inputTokens, outputTokens int64) Cost {
	pricing := costTables[providerName][model]

	inputCost := float64(inputTokens) / 1000 * pricing.Input
	outputCost := float64(outputTokens) / 1000 * pricing.Output

	return Cost{
		InputCost:  util.Round(inputCost, 6),
		OutputCost: util.Round(outputCost, 6),
		TotalCost:  util.Round(inputCost+outputCost, 6),
	}
}
