package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fircode/shelter/internal/service"
)

// FeedRequestHandler exposes the feed request workflow.
type FeedRequestHandler struct {
	Requests *service.FeedRequests
}

func NewFeedRequestHandler(r *service.FeedRequests) *FeedRequestHandler {
	return &FeedRequestHandler{Requests: r}
}

type feedRequestIn struct {
	TargetID   int64  `json:"target_id"`
	FeedAmount int64  `json:"feed_amount"`
	ArrivedAt  string `json:"arrived_at"`
}

// Approved is a pointer so a missing field is rejected rather than read as
// a decline.
type approveReq struct {
	ID       int64 `json:"id"`
	Approved *bool `json:"approved"`
	Award    int64 `json:"award"`
}

// ListPending returns every pending request, oldest first.
func (h *FeedRequestHandler) ListPending(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	views, err := h.Requests.ListPending(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newFeedRequestList(views))
}

// ListMine returns the caller's pending requests.
func (h *FeedRequestHandler) ListMine(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	views, err := h.Requests.ListByActor(ctx, u.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newFeedRequestList(views))
}

// Submit files a new request for the caller.
func (h *FeedRequestHandler) Submit(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	var req feedRequestIn
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	f, err := h.Requests.Submit(ctx, u, service.Submission{
		TargetID:   req.TargetID,
		FeedAmount: req.FeedAmount,
		ArrivedAt:  req.ArrivedAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newFeedRequestOut(f))
}

// Approve approves or declines a request (admin).
func (h *FeedRequestHandler) Approve(c echo.Context) error {
	admin, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	var req approveReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.Approved == nil {
		return respondError(c, &service.ValidationError{Field: "approved", Reason: "is required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Requests.Decide(ctx, admin, service.Decision{ID: req.ID, Approved: *req.Approved, Award: req.Award}); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Withdraw deletes the caller's own pending request :id.
func (h *FeedRequestHandler) Withdraw(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Requests.Withdraw(ctx, u, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
