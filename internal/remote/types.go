package remote

// AnalysisResult is the structured annotation the analyze collaborator
// returns for a note's content. It lives in memory only; nothing here is
// persisted.
type AnalysisResult struct {
	Summary   string          `json:"summary"`
	Knowledge []KnowledgeItem `json:"knowledge"`
	Actions   []string        `json:"actions"`
}

// KnowledgeItem is one extracted concept with learning resources.
type KnowledgeItem struct {
	Concept     string     `json:"concept"`
	Explanation string     `json:"explanation"`
	Resources   []Resource `json:"resources"`
}

// Resource is a link attached to a knowledge item.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// notePayload is the request body for create and update calls.
type notePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// analyzePayload is the request body for analyze calls.
type analyzePayload struct {
	Content string `json:"content"`
}

// errorPayload is the error body the service returns on failure.
type errorPayload struct {
	Error string `json:"error"`
}
