// Package forum holds the forum's pure decision logic: vote reconciliation,
// tag diffing, recommendation and search planning. Nothing here performs I/O.
package forum

import (
	"strings"

	"github.com/benvon/codemate/internal/apperror"
)

// VoteAction is the vote a user casts.
type VoteAction string

const (
	VoteUp   VoteAction = "upvote"
	VoteDown VoteAction = "downvote"
)

// Reputation awarded per vote.
const (
	ActorVoteDelta  = 1
	AuthorVoteDelta = 10
)

// ParseVoteAction accepts "upvote" and "downvote" in any case.
func ParseVoteAction(s string) (VoteAction, error) {
	switch VoteAction(strings.ToLower(strings.TrimSpace(s))) {
	case VoteUp:
		return VoteUp, nil
	case VoteDown:
		return VoteDown, nil
	default:
		return "", apperror.InvalidInput("action", "action must be upvote or downvote")
	}
}

// VoteState is the actor's current standing on a content item.
type VoteState struct {
	HasUpvoted   bool `json:"has_upvoted"`
	HasDownvoted bool `json:"has_downvoted"`
}

// VoteOps is the set of membership changes to apply to the item's voter sets.
type VoteOps struct {
	RemoveUpvote   bool
	RemoveDownvote bool
	AddUpvote      bool
	AddDownvote    bool
}

// VoteOutcome is what the store must apply atomically.
type VoteOutcome struct {
	Ops         VoteOps
	ActorDelta  int
	AuthorDelta int
}

// Reconcile decides the membership operations and reputation deltas for a
// vote. A vote matching the current state toggles it off; an opposite vote
// switches sides.
func Reconcile(state VoteState, action VoteAction) (VoteOutcome, error) {
	if state.HasUpvoted && state.HasDownvoted {
		return VoteOutcome{}, apperror.InvalidInput("vote_state", "a user cannot both upvote and downvote an item")
	}

	switch action {
	case VoteUp:
		switch {
		case state.HasUpvoted:
			return VoteOutcome{
				Ops:         VoteOps{RemoveUpvote: true},
				ActorDelta:  -ActorVoteDelta,
				AuthorDelta: -AuthorVoteDelta,
			}, nil
		case state.HasDownvoted:
			return VoteOutcome{
				Ops:         VoteOps{RemoveDownvote: true, AddUpvote: true},
				ActorDelta:  ActorVoteDelta,
				AuthorDelta: AuthorVoteDelta,
			}, nil
		default:
			return VoteOutcome{
				Ops:         VoteOps{AddUpvote: true},
				ActorDelta:  ActorVoteDelta,
				AuthorDelta: AuthorVoteDelta,
			}, nil
		}
	case VoteDown:
		switch {
		case state.HasDownvoted:
			return VoteOutcome{
				Ops:         VoteOps{RemoveDownvote: true},
				ActorDelta:  ActorVoteDelta,
				AuthorDelta: AuthorVoteDelta,
			}, nil
		case state.HasUpvoted:
			return VoteOutcome{
				Ops:         VoteOps{RemoveUpvote: true, AddDownvote: true},
				ActorDelta:  -ActorVoteDelta,
				AuthorDelta: -AuthorVoteDelta,
			}, nil
		default:
			return VoteOutcome{
				Ops:         VoteOps{AddDownvote: true},
				ActorDelta:  -ActorVoteDelta,
				AuthorDelta: -AuthorVoteDelta,
			}, nil
		}
	default:
		return VoteOutcome{}, apperror.InvalidInput("action", "action must be upvote or downvote")
	}
}

// Apply returns the state that results from applying the operations.
func (o VoteOps) Apply(state VoteState) VoteState {
	if o.RemoveUpvote {
		state.HasUpvoted = false
	}
	if o.RemoveDownvote {
		state.HasDownvoted = false
	}
	if o.AddUpvote {
		state.HasUpvoted = true
	}
	if o.AddDownvote {
		state.HasDownvoted = true
	}
	return state
}
