package model

// UnknownIntent is used when classification fails or nothing matches.
const UnknownIntent = "unknown"

// Classification is the advisory intent detected for a message.
type Classification struct {
	Label      string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Unknown is the neutral classification used when the classifier fails.
func Unknown() Classification {
	return Classification{Label: UnknownIntent, Confidence: 0}
}

// Normalized returns c with an unknown label filled in and confidence clamped to [0,1].
func (c Classification) Normalized() Classification {
	if c.Label == "" {
		c.Label = UnknownIntent
	}
	switch {
	case c.Confidence != c.Confidence, c.Confidence < 0:
		c.Confidence = 0
	case c.Confidence > 1:
		c.Confidence = 1
	}
	return c
}
