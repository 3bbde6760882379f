package model

// FeedRequest is a pending donation earmarked for one dog.  Rows exist
// only while pending: a decision or a withdrawal deletes them.
type FeedRequest struct {
	ID         int64  `db:"id"`          // feed_requests.id
	ActorEmail string `db:"actor_email"` // feed_requests.actor_email
	TargetID   int64  `db:"target_id"`   // feed_requests.target_id
	FeedAmount int64  `db:"feed_amount"` // feed_requests.feed_amount
	ArrivedAt  string `db:"arrived_at"`  // feed_requests.arrived_at (YYYY-MM-DD)
	Approved   bool   `db:"approved"`    // feed_requests.approved
}

// FeedRequestView joins a request with the names of its actor, used by
// the listing endpoints.
type FeedRequestView struct {
	FeedRequest
	ActorFirstName  string `db:"actor_first_name"`
	ActorSecondName string `db:"actor_second_name"`
}
