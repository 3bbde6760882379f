// Package queue defines message payloads exchanged over the message broker.
package queue

// FeedRequestQueue is the durable queue decisions are published to.
const FeedRequestQueue = "feed_request.decided"

// FeedRequestDecidedEvent is published after an admin approves or declines
// a feed request and the transaction has committed.  The request row is
// gone by then, so the event carries everything an auditor needs.
type FeedRequestDecidedEvent struct {
	RequestID  int64  `json:"request_id"`
	ActorEmail string `json:"actor_email"`
	DogID      int64  `json:"dog_id"`
	FeedAmount int64  `json:"feed_amount"`
	Approved   bool   `json:"approved"`
	Award      int64  `json:"award"`
	DecidedBy  string `json:"decided_by"`
	DecidedAt  string `json:"decided_at"`
}
