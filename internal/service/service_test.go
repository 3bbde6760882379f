package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/fircode/shelter/internal/database/databasetest"
	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/queue"
	"github.com/fircode/shelter/internal/repository"
	"github.com/fircode/shelter/internal/utils"
)

// fixture bundles the services over one fresh sqlite database.
type fixture struct {
	db        *sqlx.DB
	users     *repository.UserRepo
	dogRepo   *repository.DogRepo
	sessions  *SessionManager
	guard     *Guard
	accounts  *Accounts
	dogs      *Dogs
	requests  *FeedRequests
	published *recordingPublisher
}

func newFixture(t *testing.T, cfg SessionConfig) *fixture {
	t.Helper()
	db := databasetest.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := utils.NewHasher(4)
	users := repository.NewUserRepo(db)
	dogRepo := repository.NewDogRepo(db)
	if cfg.TokenBytes == 0 {
		cfg.TokenBytes = 96
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = time.Hour
	}
	sessions := NewSessionManager(users, repository.NewSessionRepo(db), hasher, cfg, log)
	pub := &recordingPublisher{}
	return &fixture{
		db:        db,
		users:     users,
		dogRepo:   dogRepo,
		sessions:  sessions,
		guard:     NewGuard(sessions),
		accounts:  NewAccounts(users, hasher, log),
		dogs:      NewDogs(dogRepo),
		requests:  NewFeedRequests(db, users, dogRepo, repository.NewFeedRequestRepo(db), pub, log),
		published: pub,
	}
}

func (f *fixture) register(t *testing.T, email string, admin bool) model.User {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), NewUser{
		Email:      email,
		FirstName:  "Alice",
		SecondName: "Smith",
		Password:   "12345",
		IsAdmin:    admin,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) dog(t *testing.T, admin model.User, name string) model.Dog {
	t.Helper()
	d, err := f.dogs.Create(context.Background(), admin, DogInput{Name: name, Gender: model.GenderFemale, Age: 3})
	require.NoError(t, err)
	return d
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.FeedRequestDecidedEvent
}

func (p *recordingPublisher) PublishFeedRequestDecided(_ context.Context, ev queue.FeedRequestDecidedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []queue.FeedRequestDecidedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.FeedRequestDecidedEvent(nil), p.events...)
}
