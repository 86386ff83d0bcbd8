package model

import (
	"strings"
	"time"
)

// Category is what kind of group an event recruits for.
type Category string

const (
	CategoryStudy   Category = "STUDY"
	CategoryCTF     Category = "CTF"
	CategoryProject Category = "PROJECT"
)

// Categories lists every valid Category, in display order.
var Categories = []Category{CategoryStudy, CategoryCTF, CategoryProject}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStudy, CategoryCTF, CategoryProject:
		return true
	}
	return false
}

// Difficulty is the expected skill level of an event.
type Difficulty string

const (
	DifficultyLow  Difficulty = "LOW"
	DifficultyMid  Difficulty = "MID"
	DifficultyHigh Difficulty = "HIGH"
)

// Difficulties lists every valid Difficulty.
var Difficulties = []Difficulty{DifficultyLow, DifficultyMid, DifficultyHigh}

// Valid reports whether d is one of Difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyLow, DifficultyMid, DifficultyHigh:
		return true
	}
	return false
}

// EventStatus is the recruiting state. The only transitions are
// RECRUITING <-> COMPLETED, both made by the author.
type EventStatus string

const (
	StatusRecruiting EventStatus = "RECRUITING"
	StatusCompleted  EventStatus = "COMPLETED"
)

// Valid reports whether s is RECRUITING or COMPLETED.
func (s EventStatus) Valid() bool {
	return s == StatusRecruiting || s == StatusCompleted
}

// Event is a recruiting post.
//
// Optional columns are pointers so "absent" and "empty" stay distinct all the
// way to the JSON response (null vs "").
//
// AuthorName and AuthorUsername are filled by the join with users on reads;
// they are never written.
type Event struct {
	ID               string      `json:"id"`
	ClubName         *string     `json:"clubName"`
	Category         Category    `json:"category"`
	Field            *string     `json:"field"`
	EventDate        *string     `json:"eventDate"`
	RecruitmentCount *int        `json:"recruitmentCount"`
	Difficulty       Difficulty  `json:"difficulty"`
	Title            string      `json:"title"`
	Description      *string     `json:"description"`
	AuthorID         string      `json:"authorId"`
	AuthorName       *string     `json:"authorName"`
	AuthorUsername   *string     `json:"authorUsername"`
	Status           EventStatus `json:"status"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// EnumList joins enum values for error messages: "STUDY, CTF, PROJECT".
func EnumList[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
