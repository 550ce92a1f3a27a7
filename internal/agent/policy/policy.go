// Package policy decides whether a generated reply should be handed to a
// human. The decision is a pure function of the reply text and the loaded
// configuration.
//
// The check runs on the assistant's reply, not on the customer's message,
// so a reply that merely explains fraud protection will escalate too. That
// is a known limitation of the heuristic.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Config lists the two escalation signals. A nil list means "use the
// default"; an explicit empty list disables that signal.
type Config struct {
	LowConfidencePhrases []string `yaml:"low_confidence_phrases" toml:"low_confidence_phrases" json:"low_confidence_phrases"`
	RiskPatterns         []string `yaml:"risk_patterns" toml:"risk_patterns" json:"risk_patterns"`
	// NormalizePhrases makes phrase matching case-insensitive and folds
	// typographic apostrophes, so "I’m not sure" and "i'm NOT sure" match.
	NormalizePhrases bool `yaml:"normalize_phrases" toml:"normalize_phrases" json:"normalize_phrases"`
}

var (
	defaultPhrases = []string{
		"I’m not sure",
		"I'm not sure",
		"I am not able",
	}
	defaultPatterns = []string{
		`complain`,
		`fraud`,
		`scam`,
		`unauthori[sz]ed`,
	}
)

// DefaultConfig returns the built-in phrase and pattern lists.
func DefaultConfig() Config {
	return Config{
		LowConfidencePhrases: append([]string(nil), defaultPhrases...),
		RiskPatterns:         append([]string(nil), defaultPatterns...),
	}
}

// Decision explains a policy evaluation.
type Decision struct {
	Escalate bool
	// Reason is "low_confidence", "risk_pattern" or "".
	Reason string
	// Match is the phrase or pattern that fired.
	Match string
}

const (
	ReasonLowConfidence = "low_confidence"
	ReasonRiskPattern   = "risk_pattern"
)

// Policy is immutable after New and safe for concurrent use.
type Policy struct {
	phrases   []string
	normalize bool
	patterns  []*regexp.Regexp
	sources   []string
}

// New compiles cfg. Risk patterns are matched case-insensitively and as
// whole words unless the pattern already carries its own \b anchors.
func New(cfg Config) (*Policy, error) {
	phrases := cfg.LowConfidencePhrases
	if phrases == nil {
		phrases = defaultPhrases
	}
	patterns := cfg.RiskPatterns
	if patterns == nil {
		patterns = defaultPatterns
	}

	p := &Policy{normalize: cfg.NormalizePhrases}
	for _, ph := range phrases {
		if strings.TrimSpace(ph) == "" {
			continue
		}
		if p.normalize {
			ph = normalize(ph)
		}
		p.phrases = append(p.phrases, ph)
	}
	for _, src := range patterns {
		if strings.TrimSpace(src) == "" {
			continue
		}
		expr := src
		if !strings.Contains(expr, `\b`) {
			expr = `\b(?:` + expr + `)\b`
		}
		re, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			return nil, fmt.Errorf("compile risk pattern %q: %w", src, err)
		}
		p.patterns = append(p.patterns, re)
		p.sources = append(p.sources, src)
	}
	return p, nil
}

// MustNew is New that panics on an invalid pattern.
func MustNew(cfg Config) *Policy {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Default is the policy built from DefaultConfig.
func Default() *Policy {
	return MustNew(DefaultConfig())
}

// Decide reports whether reply should escalate.
func (p *Policy) Decide(reply string) bool {
	return p.Explain(reply).Escalate
}

// Explain evaluates reply and names the first signal that fired.
// Phrases are checked before patterns.
func (p *Policy) Explain(reply string) Decision {
	text := reply
	if p.normalize {
		text = normalize(reply)
	}
	for _, ph := range p.phrases {
		if strings.Contains(text, ph) {
			return Decision{Escalate: true, Reason: ReasonLowConfidence, Match: ph}
		}
	}
	for i, re := range p.patterns {
		if re.MatchString(reply) {
			return Decision{Escalate: true, Reason: ReasonRiskPattern, Match: p.sources[i]}
		}
	}
	return Decision{}
}

// Phrases returns the effective phrase list.
func (p *Policy) Phrases() []string {
	return append([]string(nil), p.phrases...)
}

// Patterns returns the configured pattern sources.
func (p *Policy) Patterns() []string {
	return append([]string(nil), p.sources...)
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

func normalize(s string) string {
	return strings.ToLower(apostrophes.Replace(s))
}
