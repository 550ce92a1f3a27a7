package model

// Snippet is one piece of retrieved supporting text.
type Snippet struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}
