package model

import "time"

// Comment is a reply on an event.
//
// Author is a snapshot of the commenter's display name taken when the
// comment was written; AuthorName is the user's current name from the join.
// Date is a display string filled in by the service layer.
type Comment struct {
	ID         int64     `json:"id"`
	PostID     string    `json:"postId"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName *string   `json:"authorName"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
