// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// fallbackDecision is used when a decision code has no template of its own.
const fallbackDecision = "denied"

func LoadRegistry(path string) (*MessageRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg MessageRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse message registry %s: %w", path, err)
	}
	if _, ok := reg.Decisions[fallbackDecision]; !ok {
		return nil, fmt.Errorf("message registry %s: missing %q decision template", path, fallbackDecision)
	}
	return &reg, nil
}

// Decision returns the template for a decision code, falling back to the
// denied template for unknown codes.
func (r *MessageRegistry) Decision(code string) DecisionTemplate {
	if tpl, ok := r.Decisions[code]; ok {
		return tpl
	}
	return r.Decisions[fallbackDecision]
}

// ContactResponse returns the follow-up template for a stated contact
// preference.
func (r *MessageRegistry) ContactResponse(optedIn bool) (ContactTemplate, bool) {
	key := "no"
	if optedIn {
		key = "yes"
	}
	tpl, ok := r.ContactPreference[key]
	return tpl, ok
}
