package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/jinzhu/copier"
)

// Config is the loosely-typed adapter configuration as stored in
// profiles. Adapters decode it into their own typed struct.
type Config map[string]any

// DecodeConfig converts a loose config into an adapter's typed
// configuration struct. Unknown keys are ignored.
func DecodeConfig[T any](config Config) (T, error) {
	var decoded T
	if config == nil {
		return decoded, nil
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return decoded, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return decoded, fmt.Errorf("failed to decode config: %w", err)
	}
	return decoded, nil
}

// MergeConfig lays non-zero fields of overrides over base, leaving
// everything else at the base value.
func MergeConfig[T any](base, overrides T) (T, error) {
	merged := base
	if err := copier.CopyWithOption(&merged, &overrides, copier.Option{IgnoreEmpty: true}); err != nil {
		return merged, fmt.Errorf("failed to merge config: %w", err)
	}
	return merged, nil
}
