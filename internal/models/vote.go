package models

// VoteTally is the result of applying a vote: the item's counts and the
// actor's standing afterwards.
type VoteTally struct {
	UpvoteCount   int  `json:"upvote_count"`
	DownvoteCount int  `json:"downvote_count"`
	HasUpvoted    bool `json:"has_upvoted"`
	HasDownvoted  bool `json:"has_downvoted"`
}
