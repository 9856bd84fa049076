package llm

import "time"

type ExtractRequest struct {
	Text      string
	SourceURL string
	Now       time.Time // anchors year rollover; zero means time.Now()
	Sports    []string  // canonical sport names offered to the model
}
