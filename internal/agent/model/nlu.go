package model

import "time"

// Intent is one intent candidate reported by the NLU model.
type Intent struct {
	Name       string         `json:"name"`
	Confidence float64        `json:"confidence"`
	Priority   float64        `json:"priority"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Sentiment is the overall tone detected by the NLU model.
type Sentiment struct {
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NLUResponse is the parsed output of the NLU chat model.
type NLUResponse struct {
	Intents         []Intent       `json:"intents"`
	Sentiment       Sentiment      `json:"sentiment"`
	PrimaryIntent   string         `json:"primary_intent"`
	ParsingMetadata map[string]any `json:"parsing_metadata,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Primary returns the classification for the primary intent.
func (r *NLUResponse) Primary() (Classification, bool) {
	for _, it := range r.Intents {
		if it.Name == r.PrimaryIntent {
			return Classification{Label: it.Name, Confidence: it.Confidence}.Normalized(), true
		}
	}
	return Classification{}, false
}
