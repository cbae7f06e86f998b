package domain

import (
	"time"
)

// Author is the public-facing part of a user embedded in content listings.
type Author struct {
	ID         string
	Name       string
	PublicName bool
}

// nameFor returns the author's name if callerID may see it.
func (a Author) nameFor(callerID string) *string {
	if a.PublicName || (callerID != "" && callerID == a.ID) {
		name := a.Name
		return &name
	}
	return nil
}

// Post is a blog post. Drafts are only visible to their author.
type Post struct {
	ID        string
	Author    Author
	Title     string
	Body      string
	Draft     bool
	Votes     Votes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostView is a post as seen by a particular caller.
type PostView struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName *string   `json:"authorName"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Draft      bool      `json:"draft"`
	VoteTally
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"lastModifiedAt"`
}

// ViewFor returns the post as visible to callerID.
func (p *Post) ViewFor(callerID string) PostView {
	return PostView{
		ID:         p.ID,
		AuthorID:   p.Author.ID,
		AuthorName: p.Author.nameFor(callerID),
		Title:      p.Title,
		Body:       p.Body,
		Draft:      p.Draft,
		VoteTally:  p.Votes.Tally(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// Include values select which drafts a listing returns.
const (
	IncludeAll       = "all"
	IncludePublished = "published"
	IncludeDrafts    = "drafts"
)

// DraftScope says which rows a listing may return. Drafts are only ever
// returned to their author, so ViewerID bounds every draft query.
type DraftScope struct {
	Include  string
	ViewerID string
}

// Empty reports whether the scope cannot match anything: anonymous callers
// asking for drafts.
func (d DraftScope) Empty() bool {
	return d.Include == IncludeDrafts && d.ViewerID == ""
}

// PostFilter narrows a post listing.
type PostFilter struct {
	AuthorID string
	Drafts   DraftScope
}

// PostPatch is a partial post update.
type PostPatch struct {
	Title *string
	Body  *string
	Draft *bool
}
