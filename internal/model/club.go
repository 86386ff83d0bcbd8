package model

import "time"

// Club is a student club. ClubName is unique and is what users and events
// reference (by name, not by id).
type Club struct {
	ID          int64     `json:"id"`
	ClubName    string    `json:"clubName"`
	Description *string   `json:"description"`
	SchoolName  string    `json:"schoolName"`
	Activities  *string   `json:"activities"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Member is the per-club projection of a user.
type Member struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Alias    string     `json:"alias"`
	Username string     `json:"username"`
	Role     MemberRole `json:"role"`
	Tags     []string   `json:"tags"`
}

// EventSummary is the short event listing embedded in a club detail.
type EventSummary struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Category         Category    `json:"category"`
	Field            *string     `json:"field"`
	EventDate        *string     `json:"eventDate"`
	Difficulty       Difficulty  `json:"difficulty"`
	RecruitmentCount *int        `json:"recruitmentCount"`
	Status           EventStatus `json:"status"`
}

// ClubWithMembers is a club enriched with its ordered member list and the
// president's display string ("name (alias)"), or nil without a president.
type ClubWithMembers struct {
	Club
	Members   []Member `json:"members"`
	President *string  `json:"president"`
}

// ClubDetail adds the club's events to ClubWithMembers.
type ClubDetail struct {
	ClubWithMembers
	Events []EventSummary `json:"events"`
}
