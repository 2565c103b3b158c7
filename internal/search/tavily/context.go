package tavily

import (
	"encoding/json"
	"fmt"

	"github.com/kitbuilder587/tavily-go/internal/search"
)

// bytesPerToken - грубая оценка для английского текста
const bytesPerToken = 4

func EstimateTokens(s string) int {
	return (len(s) + bytesPerToken - 1) / bytesPerToken
}

// BuildContext keeps sources in order while their JSON encodings fit into
// maxTokens and returns the kept list as a JSON array.
func BuildContext(sources []search.ContextSource, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = search.DefaultMaxTokens
	}

	kept := make([]search.ContextSource, 0, len(sources))
	total := 0
	for _, src := range sources {
		raw, err := json.Marshal(src)
		if err != nil {
			return "", fmt.Errorf("marshal context source: %w", err)
		}
		total += EstimateTokens(string(raw))
		if total > maxTokens {
			break
		}
		kept = append(kept, src)
	}

	out, err := json.Marshal(kept)
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}
	return string(out), nil
}
