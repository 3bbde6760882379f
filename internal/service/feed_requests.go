package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fircode/shelter/internal/database"
	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/queue"
	"github.com/fircode/shelter/internal/repository"
)

// Submission is a user's offer to feed one dog.
type Submission struct {
	TargetID   int64
	FeedAmount int64
	ArrivedAt  string // YYYY-MM-DD, empty means today
}

// Decision is an admin's verdict on a pending request.
type Decision struct {
	ID       int64
	Approved bool
	Award    int64 // contribution points credited on approval
}

// FeedRequests runs the submit / decide / withdraw workflow.
type FeedRequests struct {
	db        *sqlx.DB
	users     *repository.UserRepo
	dogs      *repository.DogRepo
	requests  *repository.FeedRequestRepo
	publisher EventPublisher
	log       *slog.Logger

	now func() time.Time
}

// NewFeedRequests wires the workflow.  publisher may be nil.
func NewFeedRequests(db *sqlx.DB, users *repository.UserRepo, dogs *repository.DogRepo, requests *repository.FeedRequestRepo, publisher EventPublisher, log *slog.Logger) *FeedRequests {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &FeedRequests{
		db:        db,
		users:     users,
		dogs:      dogs,
		requests:  requests,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Submit records a pending request by actor for an existing dog.
func (s *FeedRequests) Submit(ctx context.Context, actor model.User, sub Submission) (model.FeedRequest, error) {
	if sub.FeedAmount <= 0 || sub.FeedAmount > MaxFeedAmount {
		return model.FeedRequest{}, ErrInvalidAmount
	}
	date, err := normalizeDate(sub.ArrivedAt, s.now)
	if err != nil {
		return model.FeedRequest{}, err
	}
	if _, err := s.dogs.GetByID(ctx, sub.TargetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.FeedRequest{}, ErrNotFound
		}
		return model.FeedRequest{}, fmt.Errorf("load dog: %w", err)
	}
	f := model.FeedRequest{
		ActorEmail: actor.Email,
		TargetID:   sub.TargetID,
		FeedAmount: sub.FeedAmount,
		ArrivedAt:  date,
	}
	if err := s.requests.Create(ctx, &f); err != nil {
		if errors.Is(err, repository.ErrMissingParent) {
			return model.FeedRequest{}, ErrNotFound
		}
		return model.FeedRequest{}, fmt.Errorf("create feed request: %w", err)
	}
	return f, nil
}

// Decide approves or declines request d.ID.  The request is deleted and,
// on approval, the dog's feed and the actor's contribution are incremented
// in the same transaction.  Two deciders racing on one request cannot both
// win: the loser's DELETE affects no row and it gets ErrNotFound.
func (s *FeedRequests) Decide(ctx context.Context, admin model.User, d Decision) error {
	if err := RequireAdmin(admin); err != nil {
		return err
	}
	if d.Award < 0 || d.Award > MaxAward {
		return invalid("award", fmt.Sprintf("must be between 0 and %d", MaxAward))
	}

	var decided model.FeedRequest
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		f, err := s.requests.GetByIDTx(ctx, tx, d.ID)
		if err != nil {
			return err
		}
		if err := s.requests.DeleteTx(ctx, tx, f.ID); err != nil {
			return err
		}
		if d.Approved {
			if err := s.users.AddContributionTx(ctx, tx, f.ActorEmail, d.Award); err != nil {
				return fmt.Errorf("credit contribution: %w", err)
			}
			if err := s.dogs.AddFeedTx(ctx, tx, f.TargetID, f.FeedAmount); err != nil {
				return fmt.Errorf("add feed: %w", err)
			}
		}
		decided = f
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("decide feed request %d: %w", d.ID, err)
	}

	ev := queue.FeedRequestDecidedEvent{
		RequestID:  decided.ID,
		ActorEmail: decided.ActorEmail,
		DogID:      decided.TargetID,
		FeedAmount: decided.FeedAmount,
		Approved:   d.Approved,
		DecidedBy:  admin.Email,
		DecidedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if d.Approved {
		ev.Award = d.Award
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.publisher.PublishFeedRequestDecided(pctx, ev); err != nil {
		s.log.Warn("publish feed request decision failed", "request_id", decided.ID, "err", err)
	}
	return nil
}

// Withdraw deletes actor's own pending request.
func (s *FeedRequests) Withdraw(ctx context.Context, actor model.User, id int64) error {
	err := s.requests.DeleteByIDAndActor(ctx, id, actor.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("withdraw feed request: %w", err)
	}
	return nil
}

func (s *FeedRequests) ListPending(ctx context.Context) ([]model.FeedRequestView, error) {
	return s.requests.ListPending(ctx)
}

func (s *FeedRequests) ListByActor(ctx context.Context, email string) ([]model.FeedRequestView, error) {
	return s.requests.ListByActor(ctx, repository.NormalizeEmail(email))
}
