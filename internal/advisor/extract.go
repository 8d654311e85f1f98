package advisor

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// ExtractArray decodes the JSON array found between the first '[' and the
// last ']' of raw. Models tend to wrap the payload in prose or code fences,
// so anything outside the brackets is ignored. Text with several arrays
// yields whatever lies between the outermost brackets, which usually fails
// to decode. The result is empty when no array can be decoded.
func ExtractArray[T any](logger *zap.Logger, raw string) []T {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		logger.Error("Failed to parse model response",
			zap.Error(err),
			zap.String("response", raw))
		return nil
	}

	return items
}
