// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash carries `json:"-"` so a User can never leak its hash through
// an accidental writeJSON(user). Handlers still return PublicUser, which is
// the projection the login endpoint promises.
//
// ClubName is a nullable pointer: a user may belong to no club, and deleting
// a club sets it back to nil for every member.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Alias        *string    `json:"alias"`
	SchoolName   *string    `json:"schoolName"`
	ClubName     *string    `json:"clubName"`
	IsAdmin      bool       `json:"isAdmin"`
	IsClubStaff  bool       `json:"isClubStaff"`
	Role         MemberRole `json:"role"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PublicUser is the shape returned to clients after login.
type PublicUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Name        string  `json:"name"`
	Alias       *string `json:"alias"`
	SchoolName  *string `json:"schoolName"`
	ClubName    *string `json:"clubName"`
	IsAdmin     bool    `json:"isAdmin"`
	IsClubStaff bool    `json:"isClubStaff"`
}

// Public returns the client-safe projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Alias:       u.Alias,
		SchoolName:  u.SchoolName,
		ClubName:    u.ClubName,
		IsAdmin:     u.IsAdmin,
		IsClubStaff: u.IsClubStaff,
	}
}

// DisplayAlias returns the alias, falling back to the username.
func (u *User) DisplayAlias() string {
	if u.Alias != nil && *u.Alias != "" {
		return *u.Alias
	}
	return u.Username
}
