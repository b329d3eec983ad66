package forum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/codemate/internal/apperror"
)

func TestReconcile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		state  VoteState
		action VoteAction
		want   VoteOutcome
	}{
		{
			name:   "upvote removes existing upvote",
			state:  VoteState{HasUpvoted: true},
			action: VoteUp,
			want:   VoteOutcome{Ops: VoteOps{RemoveUpvote: true}, ActorDelta: -1, AuthorDelta: -10},
		},
		{
			name:   "upvote switches from downvote",
			state:  VoteState{HasDownvoted: true},
			action: VoteUp,
			want:   VoteOutcome{Ops: VoteOps{RemoveDownvote: true, AddUpvote: true}, ActorDelta: 1, AuthorDelta: 10},
		},
		{
			name:   "first upvote",
			state:  VoteState{},
			action: VoteUp,
			want:   VoteOutcome{Ops: VoteOps{AddUpvote: true}, ActorDelta: 1, AuthorDelta: 10},
		},
		{
			name:   "downvote removes existing downvote",
			state:  VoteState{HasDownvoted: true},
			action: VoteDown,
			want:   VoteOutcome{Ops: VoteOps{RemoveDownvote: true}, ActorDelta: 1, AuthorDelta: 10},
		},
		{
			name:   "downvote switches from upvote",
			state:  VoteState{HasUpvoted: true},
			action: VoteDown,
			want:   VoteOutcome{Ops: VoteOps{RemoveUpvote: true, AddDownvote: true}, ActorDelta: -1, AuthorDelta: -10},
		},
		{
			name:   "first downvote",
			state:  VoteState{},
			action: VoteDown,
			want:   VoteOutcome{Ops: VoteOps{AddDownvote: true}, ActorDelta: -1, AuthorDelta: -10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Reconcile(tt.state, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			after := got.Ops.Apply(tt.state)
			assert.False(t, after.HasUpvoted && after.HasDownvoted, "resulting state must keep votes exclusive")
		})
	}
}

func TestReconcileRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Reconcile(VoteState{}, VoteAction("sideways"))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = Reconcile(VoteState{HasUpvoted: true, HasDownvoted: true}, VoteUp)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestReconcileToggleIsReversible(t *testing.T) {
	t.Parallel()

	for _, action := range []VoteAction{VoteUp, VoteDown} {
		state := VoteState{}
		first, err := Reconcile(state, action)
		require.NoError(t, err)
		state = first.Ops.Apply(state)

		second, err := Reconcile(state, action)
		require.NoError(t, err)
		state = second.Ops.Apply(state)

		assert.Equal(t, VoteState{}, state, "%s twice returns to no vote", action)
		assert.Zero(t, first.ActorDelta+second.ActorDelta)
		assert.Zero(t, first.AuthorDelta+second.AuthorDelta)
	}
}

func TestParseVoteAction(t *testing.T) {
	t.Parallel()

	got, err := ParseVoteAction(" UpVote ")
	require.NoError(t, err)
	assert.Equal(t, VoteUp, got)

	got, err = ParseVoteAction("downvote")
	require.NoError(t, err)
	assert.Equal(t, VoteDown, got)

	_, err = ParseVoteAction("")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
