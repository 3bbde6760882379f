package model

import "database/sql"

// User represents an account as stored in the `users` table.  The email is
// the identity key.  PasswordHash never leaves the service layer; handlers
// map users onto their own response types.
//
// Fields:
//  Email        – primary key, normalized to lower case.
//  Phone        – optional contact number.
//  FirstName    – given name.
//  SecondName   – family name.
//  IsAdmin      – shelter staff flag; gates dog and approval endpoints.
//  PasswordHash – bcrypt digest.
//  Contribution – award points credited by approved feed requests.
type User struct {
	Email        string         `db:"email"`         // users.email
	Phone        sql.NullString `db:"phone"`         // users.phone (nullable)
	FirstName    string         `db:"first_name"`    // users.first_name
	SecondName   string         `db:"second_name"`   // users.second_name
	IsAdmin      bool           `db:"is_admin"`      // users.is_admin
	PasswordHash string         `db:"password_hash"` // users.password_hash
	Contribution int64          `db:"contribution"`  // users.contribution
}

// Role names accepted by the authorization guard.
const (
	RoleAny   = "any"
	RoleAdmin = "admin"
)

// HasRole reports whether u satisfies role.
func (u User) HasRole(role string) bool {
	switch role {
	case RoleAdmin:
		return u.IsAdmin
	case RoleAny:
		return u.Email != ""
	}
	return false
}
