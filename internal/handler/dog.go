package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fircode/shelter/internal/service"
)

// DogHandler serves the public dog listing and the admin dog editor.
type DogHandler struct {
	Dogs *service.Dogs
}

func NewDogHandler(d *service.Dogs) *DogHandler { return &DogHandler{Dogs: d} }

type dogIn struct {
	Name        string `json:"name"`
	Photo       string `json:"photo"`
	Gender      string `json:"gender"`
	Age         int    `json:"age"`
	Description string `json:"description"`
	ArrivedAt   string `json:"arrived_at"`
	HostEmail   string `json:"host_email"`
}

type dogUpdateIn struct {
	ID int64 `json:"id"`
	dogIn
}

func (in dogIn) input() service.DogInput {
	return service.DogInput{
		Name:        in.Name,
		Photo:       in.Photo,
		Gender:      in.Gender,
		Age:         in.Age,
		Description: in.Description,
		ArrivedAt:   in.ArrivedAt,
		HostEmail:   in.HostEmail,
	}
}

// List returns every dog, hungriest first.
func (h *DogHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dogs, err := h.Dogs.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dogOut, 0, len(dogs))
	for _, d := range dogs {
		out = append(out, newDogOut(d))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one dog by :id.
func (h *DogHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Dogs.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newDogOut(d))
}

// Create adds a dog (admin).
func (h *DogHandler) Create(c echo.Context) error {
	admin, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dogIn
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Dogs.Create(ctx, admin, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newDogOut(d))
}

// Update replaces the dog named by the body's id (admin).
func (h *DogHandler) Update(c echo.Context) error {
	admin, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dogUpdateIn
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Dogs.Update(ctx, admin, req.ID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newDogOut(d))
}

// Delete removes dog :id and its pending feed requests (admin).
func (h *DogHandler) Delete(c echo.Context) error {
	admin, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Dogs.Delete(ctx, admin, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
