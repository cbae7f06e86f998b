package domain

import (
	"time"
)

// Comment is a reply to a post.
type Comment struct {
	ID        string
	PostID    string
	PostTitle string
	Author    Author
	Body      string
	Draft     bool
	Votes     Votes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentView is a comment as seen by a particular caller.
type CommentView struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	PostTitle  string    `json:"postTitle"`
	AuthorID   string    `json:"authorId"`
	AuthorName *string   `json:"authorName"`
	Body       string    `json:"body"`
	Draft      bool      `json:"draft"`
	VoteTally
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"lastModifiedAt"`
}

// ViewFor returns the comment as visible to callerID.
func (c *Comment) ViewFor(callerID string) CommentView {
	return CommentView{
		ID:         c.ID,
		PostID:     c.PostID,
		PostTitle:  c.PostTitle,
		AuthorID:   c.Author.ID,
		AuthorName: c.Author.nameFor(callerID),
		Body:       c.Body,
		Draft:      c.Draft,
		VoteTally:  c.Votes.Tally(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CommentFilter narrows a comment listing. At least one of PostID and
// AuthorID must be set.
type CommentFilter struct {
	PostID   string
	AuthorID string
	Drafts   DraftScope
}

// CommentPatch is a partial comment update.
type CommentPatch struct {
	Body  *string
	Draft *bool
}
