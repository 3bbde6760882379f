package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fircode/shelter/internal/model"
)

func TestDogsCreateDefaults(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	f.dogs.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	d, err := f.dogs.Create(ctx, admin, DogInput{Name: " Rex ", Gender: "male", Age: 2})
	require.NoError(t, err)
	assert.NotZero(t, d.ID)
	assert.Equal(t, "Rex", d.Name)
	assert.Equal(t, model.DefaultPhoto, d.Photo)
	assert.Equal(t, "2024-05-01", d.ArrivedAt)
	assert.False(t, d.HostEmail.Valid)

	got, err := f.dogs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDogsValidation(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)

	cases := map[string]DogInput{
		"name":        {Name: "", Gender: "male"},
		"gender":      {Name: "Rex", Gender: "dog"},
		"age":         {Name: "Rex", Gender: "male", Age: -1},
		"description": {Name: "Rex", Gender: "male", Description: strings.Repeat("d", 1025)},
		"arrived_at":  {Name: "Rex", Gender: "male", ArrivedAt: "01.05.2024"},
		"host_email":  {Name: "Rex", Gender: "male", HostEmail: "ghost@example.com"},
	}
	for field, in := range cases {
		_, err := f.dogs.Create(ctx, admin, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}
	list, err := f.dogs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDogsWritesRequireAdmin(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	alice := f.register(t, "alice@example.com", false)
	d := f.dog(t, admin, "Rex")

	_, err := f.dogs.Create(ctx, alice, DogInput{Name: "Sneaky", Gender: "male"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.dogs.Update(ctx, alice, d.ID, DogInput{Name: "Renamed", Gender: "male"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.dogs.Delete(ctx, alice, d.ID), ErrForbidden)

	list, err := f.dogs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d, list[0])
}

func TestDogsUpdateAndDelete(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	admin := f.register(t, "admin@example.com", true)
	d := f.dog(t, admin, "Rex")

	up, err := f.dogs.Update(ctx, admin, d.ID, DogInput{
		Name: "Rex II", Gender: "male", Age: 4, ArrivedAt: "2023-12-31", HostEmail: "Admin@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rex II", up.Name)
	assert.Equal(t, "2023-12-31", up.ArrivedAt)
	assert.Equal(t, "admin@example.com", up.HostEmail.String)

	_, err = f.dogs.Update(ctx, admin, 999, DogInput{Name: "X", Gender: "male"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.dogs.Delete(ctx, admin, d.ID))
	assert.ErrorIs(t, f.dogs.Delete(ctx, admin, d.ID), ErrNotFound)
	_, err = f.dogs.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
