package sensitive

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/recall/pkg/types"
)

// rulesFile is the YAML shape of an extra-rules file:
//
//	rules:
//	  - label: credential
//	    pattern: "(?i)bearer [a-z0-9._\\-]+"
type rulesFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern"`
}

// NewFilterFromFile creates a filter with the built-in rule set plus extra
// rules loaded from a YAML file. Patterns are matched against the
// lower-cased "key value" string of each fact.
func NewFilterFromFile(path string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sensitive: failed to read rules file: %w", err)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("sensitive: failed to parse rules file: %w", err)
	}

	f := NewFilter()
	for i, entry := range rf.Rules {
		label := types.SensitivityLabel(entry.Label)
		switch label {
		case types.SensitivityIdentifier, types.SensitivityCredential, types.SensitivityFinancial:
		default:
			return nil, fmt.Errorf("sensitive: rule %d has unknown label %q", i, entry.Label)
		}

		re, err := regexp.Compile(entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("sensitive: rule %d has invalid pattern: %w", i, err)
		}
		f.extra = append(f.extra, rule{label: label, pattern: re})
	}
	return f, nil
}
