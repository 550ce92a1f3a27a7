// Package classifier provides the intent classifiers used by the support
// orchestrator: a local example-overlap classifier and an NLU chat model
// classifier.
package classifier

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed intents/banking_intents.yaml
var defaultIntents []byte

// IntentSet maps intent labels to example utterances.
type IntentSet struct {
	Intents map[string][]string `yaml:"intents" json:"intents"`
}

// Labels returns the intent labels in sorted order.
func (s IntentSet) Labels() []string {
	labels := make([]string, 0, len(s.Intents))
	for l := range s.Intents {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// DefaultIntents returns the built-in banking intent set.
func DefaultIntents() IntentSet {
	s, err := parseIntents(defaultIntents, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded intents: %v", err))
	}
	return s
}

// LoadIntents reads an intent set from a .yaml/.yml or .json file. An empty
// path returns DefaultIntents.
func LoadIntents(path string) (IntentSet, error) {
	if path == "" {
		return DefaultIntents(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return IntentSet{}, fmt.Errorf("reading intents file: %w", err)
	}
	return parseIntents(data, filepath.Ext(path))
}

func parseIntents(data []byte, ext string) (IntentSet, error) {
	var s IntentSet
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return IntentSet{}, fmt.Errorf("parsing intents yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return IntentSet{}, fmt.Errorf("parsing intents json: %w", err)
		}
	default:
		return IntentSet{}, fmt.Errorf("unsupported intents file extension %q", ext)
	}
	if len(s.Intents) == 0 {
		return IntentSet{}, fmt.Errorf("intents file defines no intents")
	}
	return s, nil
}
