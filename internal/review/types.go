package review

import "time"

// Submission is what the editor posts for review.
type Submission struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	// Filename is an optional hint for language detection.
	Filename string `json:"filename,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Result is a completed review.
type Result struct {
	ID         string    `json:"id"`
	Language   string    `json:"language"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Markdown   string    `json:"review"`
	HTML       string    `json:"html,omitempty"`
	Cached     bool      `json:"cached"`
	Redactions int       `json:"redactions,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Timing     Timing    `json:"timing"`
}
