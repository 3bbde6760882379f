package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fircode/shelter/internal/model"
)

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")

	for _, amount := range []int64{0, -3} {
		_, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID + 100, FeedAmount: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: 1, ArrivedAt: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	pending, err := f.requests.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveFeedRequest(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")

	req, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: 3, ArrivedAt: "2024-05-01"})
	require.NoError(t, err)

	mine, err := f.requests.ListByActor(ctx, "Alice@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, req.ID, mine[0].ID)
	assert.Equal(t, "Alice", mine[0].ActorFirstName)

	require.NoError(t, f.requests.Decide(ctx, admin, Decision{ID: req.ID, Approved: true, Award: 5}))

	dog, err := f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, dog.FeedAmount)
	u, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 5, u.Contribution)

	pending, err := f.requests.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	events := f.published.all()
	require.Len(t, events, 1)
	assert.Equal(t, req.ID, events[0].RequestID)
	assert.True(t, events[0].Approved)
	assert.EqualValues(t, 5, events[0].Award)
	assert.Equal(t, "admin@example.com", events[0].DecidedBy)

	assert.ErrorIs(t, f.requests.Decide(ctx, admin, Decision{ID: req.ID, Approved: true, Award: 5}), ErrNotFound)
	dog, err = f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, dog.FeedAmount, "a request is applied once")
}

func TestDeclineFeedRequest(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")

	req, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: 3})
	require.NoError(t, err)
	require.NoError(t, f.requests.Decide(ctx, admin, Decision{ID: req.ID, Approved: false, Award: 5}))

	dog, err := f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Zero(t, dog.FeedAmount)
	u, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, u.Contribution)

	events := f.published.all()
	require.Len(t, events, 1)
	assert.False(t, events[0].Approved)
	assert.Zero(t, events[0].Award)
}

func TestDecideRejectedWithoutStateChange(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")
	req, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: 3})
	require.NoError(t, err)

	assert.ErrorIs(t, f.requests.Decide(ctx, alice, Decision{ID: req.ID, Approved: true, Award: 100}), ErrForbidden)
	assert.ErrorIs(t, f.requests.Decide(ctx, admin, Decision{ID: req.ID, Approved: true, Award: -1}), ErrInvalidInput)
	assert.ErrorIs(t, f.requests.Decide(ctx, admin, Decision{ID: req.ID + 1, Approved: true}), ErrNotFound)

	pending, err := f.requests.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	dog, err := f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Zero(t, dog.FeedAmount)
	u, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, u.Contribution)
	assert.Empty(t, f.published.all())
}

func TestFeedAmountAndAwardAreBounded(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")

	for _, amount := range []int64{MaxFeedAmount + 1, math.MaxInt64} {
		_, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	var ids []int64
	for i := 0; i < 2; i++ {
		req, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: MaxFeedAmount})
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	for _, award := range []int64{MaxAward + 1, math.MaxInt64} {
		err := f.requests.Decide(ctx, admin, Decision{ID: ids[0], Approved: true, Award: award})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "award", ve.Field)
	}
	pending, err := f.requests.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "rejected awards leave the request pending")

	for _, id := range ids {
		require.NoError(t, f.requests.Decide(ctx, admin, Decision{ID: id, Approved: true, Award: MaxAward}))
	}

	dogs, err := f.dogs.List(ctx)
	require.NoError(t, err)
	require.Len(t, dogs, 1)
	assert.EqualValues(t, 2*MaxFeedAmount, dogs[0].FeedAmount)

	board, err := f.accounts.Leaderboard(ctx)
	require.NoError(t, err)
	var contribution int64
	for _, u := range board {
		if u.Email == "alice@example.com" {
			contribution = u.Contribution
		}
	}
	assert.EqualValues(t, 2*MaxAward, contribution)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	bob := f.register(t, "bob@example.com", false)
	d := f.dog(t, admin, "Rex")

	req, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: 2})
	require.NoError(t, err)

	assert.ErrorIs(t, f.requests.Withdraw(ctx, bob, req.ID), ErrNotFound)
	require.NoError(t, f.requests.Withdraw(ctx, alice, req.ID))
	assert.ErrorIs(t, f.requests.Withdraw(ctx, alice, req.ID), ErrNotFound)
	assert.ErrorIs(t, f.requests.Decide(ctx, admin, Decision{ID: req.ID, Approved: true}), ErrNotFound)
}

func TestConcurrentApprovalsSumExactly(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	d := f.dog(t, admin, "Rex")

	const n = 16
	var (
		ids       []int64
		wantFeed  int64
		wantAward int64
	)
	actors := make([]model.User, 4)
	for i := range actors {
		actors[i] = f.register(t, fmt.Sprintf("user%d@example.com", i), false)
	}
	for i := 0; i < n; i++ {
		amount := int64(i + 1)
		req, err := f.requests.Submit(ctx, actors[i%len(actors)], Submission{TargetID: d.ID, FeedAmount: amount})
		require.NoError(t, err)
		ids = append(ids, req.ID)
		wantFeed += amount
		wantAward += 2
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			errs <- f.requests.Decide(ctx, admin, Decision{ID: id, Approved: true, Award: 2})
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	dog, err := f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, wantFeed, dog.FeedAmount)

	var total int64
	require.NoError(t, f.db.Get(&total, "SELECT SUM(contribution) FROM users"))
	assert.Equal(t, wantAward, total)
	assert.Len(t, f.published.all(), n)
}

func TestConcurrentDecidersApplyOnce(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")
	req, err := f.requests.Submit(ctx, alice, Submission{TargetID: d.ID, FeedAmount: 4})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.requests.Decide(ctx, admin, Decision{ID: req.ID, Approved: true, Award: 1})
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.True(t, errors.Is(err, ErrNotFound), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	dog, err := f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, dog.FeedAmount)
	u, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.Contribution)
}
