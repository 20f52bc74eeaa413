package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, `
rules:
  - pattern: "*github.com*"
    category: work
  - pattern: "*youtube.com*"
    category: entertainment
`)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].CategoryID != "work" || rules[1].CategoryID != "entertainment" {
		t.Errorf("rule order not preserved: %v, %v", rules[0].CategoryID, rules[1].CategoryID)
	}
	if !rules[0].Pattern.Match("https://github.com/lotas/tabkorb") {
		t.Error("expected github pattern to match")
	}
	if rules[0].Pattern.Match("https://example.com") {
		t.Error("github pattern matched unrelated URL")
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
	if rules != nil {
		t.Errorf("expected no rules, got %v", rules)
	}
}

func TestLoadRulesRejectsIncomplete(t *testing.T) {
	path := writeRules(t, `
rules:
  - pattern: "*github.com*"
`)
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for rule without category")
	}
}

func TestLoadRulesRejectsBadPattern(t *testing.T) {
	path := writeRules(t, `
rules:
  - pattern: "[unclosed"
    category: work
`)
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestLoadRulesRejectsBadYAML(t *testing.T) {
	path := writeRules(t, "rules: [unterminated")
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
