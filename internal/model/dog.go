package model

import "database/sql"

// Gender values accepted for dogs.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

// DefaultPhoto is used when a dog is created without a photo reference.
const DefaultPhoto = "default.jpg"

// DateLayout is the on-disk and wire format of arrival dates.
const DateLayout = "2006-01-02"

// Dog is a row of the `dogs` table.  FeedAmount only grows through
// approved feed requests.
type Dog struct {
	ID          int64          `db:"id"`          // dogs.id
	Name        string         `db:"name"`        // dogs.name
	Photo       string         `db:"photo"`       // dogs.photo
	Gender      string         `db:"gender"`      // dogs.gender
	Age         int            `db:"age"`         // dogs.age
	Description string         `db:"description"` // dogs.description
	FeedAmount  int64          `db:"feed_amount"` // dogs.feed_amount
	ArrivedAt   string         `db:"arrived_at"`  // dogs.arrived_at (YYYY-MM-DD)
	HostEmail   sql.NullString `db:"host_email"`  // dogs.host_email (nullable)
}
