package classifier

import (
	"context"
	"math"

	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/pkg/textutil"
)

// DefaultMinScore is the cosine score below which a message is unknown.
const DefaultMinScore = 0.3

type example struct {
	label string
	terms map[string]int
	norm  float64
}

// ExampleClassifier scores a message against example utterances by cosine
// similarity of their term counts. It is read-only after construction.
type ExampleClassifier struct {
	examples []example
	minScore float64
}

// NewExampleClassifier builds a classifier from set. minScore <= 0 selects
// DefaultMinScore.
func NewExampleClassifier(set IntentSet, minScore float64) *ExampleClassifier {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	c := &ExampleClassifier{minScore: minScore}
	// sorted labels keep tie-breaking stable
	for _, label := range set.Labels() {
		for _, ex := range set.Intents[label] {
			terms := textutil.Counts(textutil.Tokenize(ex))
			if len(terms) == 0 {
				continue
			}
			c.examples = append(c.examples, example{label: label, terms: terms, norm: norm(terms)})
		}
	}
	return c
}

// Ready reports whether any usable example was loaded.
func (c *ExampleClassifier) Ready() bool { return len(c.examples) > 0 }

// Classify returns the label of the closest example.
func (c *ExampleClassifier) Classify(ctx context.Context, text string) (model.Classification, error) {
	if err := ctx.Err(); err != nil {
		return model.Classification{}, err
	}
	q := textutil.Counts(textutil.Tokenize(text))
	if len(q) == 0 {
		return model.Unknown(), nil
	}
	qn := norm(q)

	best := model.Unknown()
	for _, ex := range c.examples {
		dot := 0.0
		for term, n := range q {
			dot += float64(n * ex.terms[term])
		}
		if dot == 0 {
			continue
		}
		score := dot / (qn * ex.norm)
		if score > best.Confidence {
			best = model.Classification{Label: ex.label, Confidence: score}
		}
	}
	if best.Confidence < c.minScore {
		return model.Classification{Label: model.UnknownIntent, Confidence: best.Confidence}.Normalized(), nil
	}
	return best.Normalized(), nil
}

func norm(terms map[string]int) float64 {
	s := 0.0
	for _, n := range terms {
		s += float64(n * n)
	}
	return math.Sqrt(s)
}
