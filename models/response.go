package models

// Answer sources reported back to the caller.
const (
	SourcePhrase   = "phrase"
	SourceSemantic = "semantic"
	SourceNone     = "none"
)

type IndexResponse struct {
	Message  string `json:"message"`
	Passages int    `json:"passages"`
	Error    string `json:"error,omitempty"`
}

type AskResponse struct {
	Answer    string `json:"answer"`
	Source    string `json:"source"`
	Article   string `json:"article,omitempty"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"sessionID"`
}
