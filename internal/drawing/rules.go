package drawing

import (
	"maps"
	"slices"
	"strings"
)

// Rule maps trigger keywords to SD web UI option and txt2img param overrides.
type Rule struct {
	Keywords []string       `json:"keywords" yaml:"keywords"`
	Options  map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Matches reports whether keyword is one of the rule's keywords.
func (r Rule) Matches(keyword string) bool {
	return slices.Contains(r.Keywords, keyword)
}

// Defaults are merged under every rule override.
type Defaults struct {
	Params  map[string]any `json:"params" yaml:"params"`
	Options map[string]any `json:"options" yaml:"options"`
}

// RuleSet is the immutable rule table loaded at startup.
type RuleSet struct {
	Rules    []Rule   `json:"rules" yaml:"rules"`
	Defaults Defaults `json:"defaults" yaml:"defaults"`
	Start    Start    `json:"start" yaml:"start"`
}

// Start holds the drawing API connection arguments.
type Start struct {
	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	BaseURL  string `json:"baseurl,omitempty" yaml:"baseurl,omitempty"`
	UseHTTPS bool   `json:"use_https,omitempty" yaml:"use_https,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Sampler  string `json:"sampler,omitempty" yaml:"sampler,omitempty"`
	Steps    int    `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Options picks a rule's options table.
func Options(r Rule) map[string]any { return r.Options }

// Params picks a rule's params table.
func Params(r Rule) map[string]any { return r.Params }

// Resolve merges the pick table of every rule matching keyword, in table
// order with later matches winning, over a copy of base. Neither rules nor
// base are modified. matched reports whether any rule listed keyword.
func Resolve(rules []Rule, keyword string, pick func(Rule) map[string]any, base map[string]any) (merged map[string]any, matched bool) {
	merged = make(map[string]any, len(base))
	maps.Copy(merged, base)
	for _, r := range rules {
		if !r.Matches(keyword) {
			continue
		}
		matched = true
		maps.Copy(merged, pick(r))
	}
	return merged, matched
}

// ResolveOptions returns DefaultOptions overlaid with every rule matching keyword.
func (rs *RuleSet) ResolveOptions(keyword string) (map[string]any, bool) {
	return Resolve(rs.Rules, keyword, Options, rs.Defaults.Options)
}

// ResolveParams returns DefaultParams overlaid with every rule matching keyword.
func (rs *RuleSet) ResolveParams(keyword string) (map[string]any, bool) {
	return Resolve(rs.Rules, keyword, Params, rs.Defaults.Params)
}

// KeywordGroups returns each rule's keyword list, in table order.
func (rs *RuleSet) KeywordGroups() [][]string {
	groups := make([][]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		groups = append(groups, slices.Clone(r.Keywords))
	}
	return groups
}

// ModelsText renders KeywordGroups for the model query reply, one rule per line.
func (rs *RuleSet) ModelsText() string {
	var sb strings.Builder
	sb.WriteString("目前可用模型：\n")
	for _, group := range rs.KeywordGroups() {
		quoted := make([]string, len(group))
		for i, k := range group {
			quoted[i] = "[" + k + "]"
		}
		sb.WriteString(strings.Join(quoted, ","))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
