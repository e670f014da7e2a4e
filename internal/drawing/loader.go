package drawing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// LoadRuleSet reads the rule document. .yaml and .yml files are decoded as
// YAML; anything else as JSONC.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draw rules: %w", err)
	}

	var rs RuleSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rs); err != nil {
			return nil, fmt.Errorf("parse draw rules %s: %w", path, err)
		}
	default:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parse draw rules %s: %w", path, err)
		}
		if err := json.Unmarshal(std, &rs); err != nil {
			return nil, fmt.Errorf("parse draw rules %s: %w", path, err)
		}
	}

	if err := rs.validate(); err != nil {
		return nil, fmt.Errorf("draw rules %s: %w", path, err)
	}
	rs.applyStartDefaults()
	return &rs, nil
}

func (rs *RuleSet) validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	for i, r := range rs.Rules {
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %d: keywords are required", i)
		}
	}
	return nil
}

// applyStartDefaults fills empty tables and lets start.sampler / start.steps
// act as txt2img defaults, as webuiapi does.
func (rs *RuleSet) applyStartDefaults() {
	if rs.Defaults.Params == nil {
		rs.Defaults.Params = make(map[string]any)
	}
	if rs.Defaults.Options == nil {
		rs.Defaults.Options = make(map[string]any)
	}
	if _, ok := rs.Defaults.Params["sampler_name"]; !ok && rs.Start.Sampler != "" {
		rs.Defaults.Params["sampler_name"] = rs.Start.Sampler
	}
	if _, ok := rs.Defaults.Params["steps"]; !ok && rs.Start.Steps > 0 {
		rs.Defaults.Params["steps"] = rs.Start.Steps
	}
}

// URL returns the web UI root derived from the start arguments, or "" when
// none are set. A baseurl ending in /sdapi/v1 is trimmed to the root.
func (s Start) URL() string {
	if s.BaseURL != "" {
		return strings.TrimSuffix(strings.TrimRight(s.BaseURL, "/"), "/sdapi/v1")
	}
	if s.Host == "" {
		return ""
	}
	scheme := "http"
	if s.UseHTTPS {
		scheme = "https"
	}
	port := s.Port
	if port == 0 {
		port = 7860
	}
	return scheme + "://" + s.Host + ":" + strconv.Itoa(port)
}
