package models

import "fmt"

// SearchQuery represents a corpus search request.
type SearchQuery struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Corpus string `json:"corpus,omitempty"` // restrict to one corpus when set
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes the limit.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// SearchResult is a single corpus search hit.
type SearchResult struct {
	Utterance *Utterance `json:"utterance"`
	Score     float64    `json:"score"`
	Rank      int        `json:"rank"`
}

// SearchResponse is the response for a corpus search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}

// PredictRequest is the HTTP prediction request body.
type PredictRequest struct {
	Utterance string `json:"utterance"`
}

// Validate rejects empty prediction requests.
func (r *PredictRequest) Validate() error {
	if r.Utterance == "" {
		return fmt.Errorf("utterance cannot be empty")
	}
	return nil
}
