package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/repository"
)

// DogInput carries the editable fields of a dog.  FeedAmount is absent on
// purpose: only approvals change it.
type DogInput struct {
	Name        string
	Photo       string
	Gender      string
	Age         int
	Description string
	ArrivedAt   string // YYYY-MM-DD, empty means today
	HostEmail   string // optional
}

// Dogs manages the shelter's dogs.  Writes are admin only.
type Dogs struct {
	repo *repository.DogRepo
	now  func() time.Time
}

func NewDogs(repo *repository.DogRepo) *Dogs {
	return &Dogs{repo: repo, now: time.Now}
}

func (s *Dogs) List(ctx context.Context) ([]model.Dog, error) {
	return s.repo.ListAll(ctx)
}

func (s *Dogs) Get(ctx context.Context, id int64) (model.Dog, error) {
	d, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Dog{}, ErrNotFound
	}
	return d, err
}

// Create validates in and stores a new dog with zero feed.
func (s *Dogs) Create(ctx context.Context, admin model.User, in DogInput) (model.Dog, error) {
	if err := RequireAdmin(admin); err != nil {
		return model.Dog{}, err
	}
	d, err := s.build(in)
	if err != nil {
		return model.Dog{}, err
	}
	if err := s.repo.Create(ctx, &d); err != nil {
		if errors.Is(err, repository.ErrMissingParent) {
			return model.Dog{}, invalid("host_email", "unknown user")
		}
		return model.Dog{}, fmt.Errorf("create dog: %w", err)
	}
	return d, nil
}

// Update replaces the editable fields of dog id.
func (s *Dogs) Update(ctx context.Context, admin model.User, id int64, in DogInput) (model.Dog, error) {
	if err := RequireAdmin(admin); err != nil {
		return model.Dog{}, err
	}
	d, err := s.build(in)
	if err != nil {
		return model.Dog{}, err
	}
	d.ID = id
	switch err := s.repo.Update(ctx, &d); {
	case errors.Is(err, repository.ErrNotFound):
		return model.Dog{}, ErrNotFound
	case errors.Is(err, repository.ErrMissingParent):
		return model.Dog{}, invalid("host_email", "unknown user")
	case err != nil:
		return model.Dog{}, fmt.Errorf("update dog: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes dog id together with its pending feed requests.
func (s *Dogs) Delete(ctx context.Context, admin model.User, id int64) error {
	if err := RequireAdmin(admin); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete dog: %w", err)
	}
	return nil
}

func (s *Dogs) build(in DogInput) (model.Dog, error) {
	d := model.Dog{
		Name:        strings.TrimSpace(in.Name),
		Photo:       strings.TrimSpace(in.Photo),
		Gender:      strings.TrimSpace(in.Gender),
		Age:         in.Age,
		Description: in.Description,
	}
	if n := utf8.RuneCountInString(d.Name); n < 1 || n > 32 {
		return model.Dog{}, invalid("name", "must be 1 to 32 characters")
	}
	if d.Photo == "" {
		d.Photo = model.DefaultPhoto
	}
	if len(d.Photo) > 255 {
		return model.Dog{}, invalid("photo", "must be at most 255 characters")
	}
	if !model.ValidGender(d.Gender) {
		return model.Dog{}, invalid("gender", "must be male or female")
	}
	if d.Age < 0 {
		return model.Dog{}, invalid("age", "must not be negative")
	}
	if utf8.RuneCountInString(d.Description) > 1024 {
		return model.Dog{}, invalid("description", "must be at most 1024 characters")
	}
	date, err := normalizeDate(in.ArrivedAt, s.now)
	if err != nil {
		return model.Dog{}, err
	}
	d.ArrivedAt = date
	if host := repository.NormalizeEmail(in.HostEmail); host != "" {
		d.HostEmail = sql.NullString{String: host, Valid: true}
	}
	return d, nil
}

// normalizeDate validates a YYYY-MM-DD date, defaulting to today.
func normalizeDate(s string, now func() time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now().Format(model.DateLayout), nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return "", invalid("arrived_at", "must be a YYYY-MM-DD date")
	}
	return t.Format(model.DateLayout), nil
}
