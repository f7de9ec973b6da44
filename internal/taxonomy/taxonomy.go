package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

// Taxonomy holds the keyword sets shared by the article and social-post
// pipelines: threat tiers, place names, topic buckets and search keywords.
type Taxonomy struct {
	Tiers          Tiers    `yaml:"threat_tiers"`
	Locations      []string `yaml:"locations"`
	Topics         Topics   `yaml:"topics"`
	SearchKeywords []string `yaml:"search_keywords"`
}

// Tiers are the threat keyword tiers in precedence order.
type Tiers struct {
	Critical []string `yaml:"critical"`
	High     []string `yaml:"high"`
	Medium   []string `yaml:"medium"`
}

// Topics are the topical keyword buckets.
type Topics struct {
	GBV           []string `yaml:"gbv"`
	Cyberbullying []string `yaml:"cyberbullying"`
	Scams         []string `yaml:"scams"`
}

// Default returns the taxonomy embedded in the binary.
func Default() *Taxonomy {
	t, err := parse(defaultKeywordsYAML)
	if err != nil {
		// The embedded file is validated by tests; this cannot happen at runtime.
		panic(fmt.Sprintf("embedded keywords.yaml invalid: %v", err))
	}
	return t
}

// LoadFile reads a taxonomy override from a YAML file.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(t.Tiers.Critical) == 0 && len(t.Tiers.High) == 0 && len(t.Tiers.Medium) == 0 {
		return nil, fmt.Errorf("taxonomy has no threat tiers")
	}
	return &t, nil
}
