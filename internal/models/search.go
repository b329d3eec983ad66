package models

// SearchResult is the normalized record returned by global search.
type SearchResult struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	ID    string `json:"id"`
}
