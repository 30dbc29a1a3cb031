// Package normalize maps free-text supply names, region codes and RPC result
// rows onto the canonical vocabulary used by the forecast endpoint.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRulePriority applies to rule records that do not declare a priority.
const DefaultRulePriority = 100

// RuleRecord is one entry of the mappings configuration.
type RuleRecord struct {
	Pattern        string `json:"pattern" yaml:"pattern"`
	CanonicalLabel string `json:"vacina_normalizada" yaml:"vacina_normalizada"`
	Priority       *int   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// EffectivePriority returns the declared priority or DefaultRulePriority.
func (record RuleRecord) EffectivePriority() int {
	if record.Priority == nil {
		return DefaultRulePriority
	}
	return *record.Priority
}

// RuleSource supplies rule records in declaration order.
type RuleSource interface {
	RuleRecords() ([]RuleRecord, error)
}

type matcher interface {
	match(text string) bool
}

type regexpMatcher struct {
	pattern *regexp.Regexp
}

func (m regexpMatcher) match(text string) bool {
	return m.pattern.MatchString(text)
}

// substringMatcher is used for patterns that do not compile.
type substringMatcher struct {
	needle string
}

func (m substringMatcher) match(text string) bool {
	return strings.Contains(strings.ToLower(text), m.needle)
}

func newMatcher(pattern string) matcher {
	compiled, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return substringMatcher{needle: strings.ToLower(pattern)}
	}
	return regexpMatcher{pattern: compiled}
}

// Rule is a loaded rule with its matching strategy chosen once.
type Rule struct {
	Pattern        string `json:"pattern"`
	CanonicalLabel string `json:"vacina_normalizada"`
	Priority       int    `json:"priority"`
	Literal        bool   `json:"literal,omitempty"`

	matcher matcher
}

// Matches reports whether the rule pattern occurs anywhere in text.
// Rules with an empty pattern never match.
func (rule Rule) Matches(text string) bool {
	if rule.Pattern == "" || rule.matcher == nil {
		return false
	}
	return rule.matcher.match(text)
}

// RuleTable is an immutable, priority-ordered list of rules.
type RuleTable struct {
	rules []Rule
}

// NewRuleTable orders records by ascending priority, keeping declaration
// order between equal priorities. Duplicates are kept.
func NewRuleTable(records []RuleRecord) *RuleTable {
	ordered := make([]RuleRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectivePriority() < ordered[j].EffectivePriority()
	})

	rules := make([]Rule, 0, len(ordered))
	for _, record := range ordered {
		rule := Rule{
			Pattern:        record.Pattern,
			CanonicalLabel: record.CanonicalLabel,
			Priority:       record.EffectivePriority(),
		}
		if record.Pattern != "" {
			rule.matcher = newMatcher(record.Pattern)
			_, rule.Literal = rule.matcher.(substringMatcher)
		}
		rules = append(rules, rule)
	}
	return &RuleTable{rules: rules}
}

// LoadRuleTable builds a table from the records of source.
func LoadRuleTable(source RuleSource) (*RuleTable, error) {
	records, err := source.RuleRecords()
	if err != nil {
		return nil, err
	}
	return NewRuleTable(records), nil
}

// Len returns the number of loaded rules.
func (table *RuleTable) Len() int {
	if table == nil {
		return 0
	}
	return len(table.rules)
}

// Rules returns a copy of the rules in evaluation order.
func (table *RuleTable) Rules() []Rule {
	if table == nil {
		return []Rule{}
	}
	rules := make([]Rule, len(table.rules))
	copy(rules, table.rules)
	return rules
}

// Match returns the label of the first rule matching text.
func (table *RuleTable) Match(text string) (string, bool) {
	if table == nil {
		return "", false
	}
	for _, rule := range table.rules {
		if rule.Matches(text) {
			return rule.CanonicalLabel, true
		}
	}
	return "", false
}

// FileSource reads rule records from a JSON or YAML file. A missing file
// yields no records.
type FileSource struct {
	Path string
}

func (source FileSource) RuleRecords() ([]RuleRecord, error) {
	content, err := os.ReadFile(source.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []RuleRecord{}, nil
		}
		return nil, fmt.Errorf("read mappings %s: %w", source.Path, err)
	}
	return DecodeRuleRecords(content, filepath.Ext(source.Path))
}

// DecodeRuleRecords parses a rule list; ext selects YAML for ".yaml"/".yml"
// and JSON otherwise.
func DecodeRuleRecords(content []byte, ext string) ([]RuleRecord, error) {
	records := make([]RuleRecord, 0)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &records); err != nil {
			return nil, fmt.Errorf("parse yaml mappings: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &records); err != nil {
			return nil, fmt.Errorf("parse json mappings: %w", err)
		}
	}
	return records, nil
}

// LoadRuleFile is LoadRuleTable over a FileSource.
func LoadRuleFile(path string) (*RuleTable, error) {
	return LoadRuleTable(FileSource{Path: path})
}
