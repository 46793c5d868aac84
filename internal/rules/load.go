package rules

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a JSON rule file: a top-level array of rule objects.
func Load(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var out []Rule
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	return out, nil
}
