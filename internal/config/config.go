// Package config loads the optional categorization rules file. Rules seed
// the rule-based strategy: glob patterns matched against a tab's URL or
// title, mapped to a category id, in file order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/lotas/tabkorb/internal/categorize"
	"gopkg.in/yaml.v3"
)

// RuleSpec is one entry of the rules file.
type RuleSpec struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// File is the rules file schema.
type File struct {
	Rules []RuleSpec `yaml:"rules"`
}

// DefaultRulesPath returns ~/.config/tabkorb/rules.yaml.
func DefaultRulesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tabkorb", "rules.yaml")
}

// LoadRules parses the rules file at path. A missing file is not an error;
// it returns an empty rule list. Invalid patterns and entries with a
// missing field are rejected with the offending index in the error.
func LoadRules(path string) ([]categorize.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	rules := make([]categorize.Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		if spec.Pattern == "" || spec.Category == "" {
			return nil, fmt.Errorf("rule %d: pattern and category are required", i)
		}
		g, err := glob.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, spec.Pattern, err)
		}
		rules = append(rules, categorize.Rule{Pattern: g, CategoryID: spec.Category})
	}
	return rules, nil
}
