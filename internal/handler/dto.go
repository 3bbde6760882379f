package handler

import "github.com/fircode/shelter/internal/model"

// Response shapes are declared per endpoint so storage-only fields such as
// the password hash cannot leak by accident.

type userProfile struct {
	Email        string  `json:"email"`
	PhoneNumber  *string `json:"phone_number"`
	FirstName    string  `json:"first_name"`
	SecondName   string  `json:"second_name"`
	IsAdmin      bool    `json:"is_admin"`
	Contribution int64   `json:"contribution"`
}

func newUserProfile(u model.User) userProfile {
	p := userProfile{
		Email:        u.Email,
		FirstName:    u.FirstName,
		SecondName:   u.SecondName,
		IsAdmin:      u.IsAdmin,
		Contribution: u.Contribution,
	}
	if u.Phone.Valid {
		phone := u.Phone.String
		p.PhoneNumber = &phone
	}
	return p
}

// userStat is the public leaderboard entry: no email, phone or admin flag.
type userStat struct {
	FirstName    string `json:"first_name"`
	SecondName   string `json:"second_name"`
	Contribution int64  `json:"contribution"`
}

type dogOut struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Photo       string  `json:"photo"`
	Gender      string  `json:"gender"`
	Age         int     `json:"age"`
	Description string  `json:"description"`
	FeedAmount  int64   `json:"feed_amount"`
	ArrivedAt   string  `json:"arrived_at"`
	HostEmail   *string `json:"host_email"`
}

func newDogOut(d model.Dog) dogOut {
	out := dogOut{
		ID:          d.ID,
		Name:        d.Name,
		Photo:       d.Photo,
		Gender:      d.Gender,
		Age:         d.Age,
		Description: d.Description,
		FeedAmount:  d.FeedAmount,
		ArrivedAt:   d.ArrivedAt,
	}
	if d.HostEmail.Valid {
		host := d.HostEmail.String
		out.HostEmail = &host
	}
	return out
}

type feedRequestOut struct {
	ID              int64  `json:"id"`
	ActorEmail      string `json:"actor_email"`
	ActorFirstName  string `json:"actor_first_name,omitempty"`
	ActorSecondName string `json:"actor_second_name,omitempty"`
	TargetID        int64  `json:"target_id"`
	FeedAmount      int64  `json:"feed_amount"`
	ArrivedAt       string `json:"arrived_at"`
	Approved        bool   `json:"approved"`
}

func newFeedRequestOut(f model.FeedRequest) feedRequestOut {
	return feedRequestOut{
		ID:         f.ID,
		ActorEmail: f.ActorEmail,
		TargetID:   f.TargetID,
		FeedAmount: f.FeedAmount,
		ArrivedAt:  f.ArrivedAt,
		Approved:   f.Approved,
	}
}

func newFeedRequestList(views []model.FeedRequestView) []feedRequestOut {
	out := make([]feedRequestOut, 0, len(views))
	for _, v := range views {
		f := newFeedRequestOut(v.FeedRequest)
		f.ActorFirstName = v.ActorFirstName
		f.ActorSecondName = v.ActorSecondName
		out = append(out, f)
	}
	return out
}
