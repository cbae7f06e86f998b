package pagination

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTake = 20
	MaxTake     = 100
)

// cursorSep joins the timestamp and id halves of a cursor.
const cursorSep = "_"

// Cursor is the position after which the next page starts: the creation
// time of the last row seen and its id as a tie-breaker. An empty ID
// compares on CreatedAt alone.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// String encodes the cursor as <RFC3339Nano>_<id>.
func (c Cursor) String() string {
	s := c.CreatedAt.UTC().Format(time.RFC3339Nano)
	if c.ID != "" {
		s += cursorSep + c.ID
	}
	return s
}

// ParseCursor decodes <RFC3339>[_<id>].
func ParseCursor(raw string) (Cursor, error) {
	ts, id, _ := strings.Cut(raw, cursorSep)
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor %q: must be an RFC 3339 timestamp optionally followed by _<id>", raw)
	}
	return Cursor{CreatedAt: t, ID: id}, nil
}

// Params is keyset pagination over (creation time, id). Cursor is exclusive.
type Params struct {
	Cursor     *Cursor
	Take       int
	Descending bool
}

// FromRequest reads ?cursor=<cursor>&take=<n>&sort=asc|desc. Sort defaults
// to descending (newest first).
func FromRequest(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := Params{Take: DefaultTake, Descending: true}

	if raw := q.Get("cursor"); raw != "" {
		c, err := ParseCursor(raw)
		if err != nil {
			return Params{}, err
		}
		p.Cursor = &c
	}

	if raw := q.Get("take"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxTake {
			return Params{}, fmt.Errorf("invalid take %q: must be between 1 and %d", raw, MaxTake)
		}
		p.Take = n
	}

	switch q.Get("sort") {
	case "", "desc":
	case "asc":
		p.Descending = false
	default:
		return Params{}, fmt.Errorf("invalid sort %q: must be asc or desc", q.Get("sort"))
	}

	return p, nil
}

// Result is one page of items plus the cursor for the next page, if any.
type Result[T any] struct {
	Data       []T     `json:"data"`
	NextCursor *string `json:"next_cursor"`
}

// NewResult builds a page. A full page yields a cursor at the last item;
// a short page means there is nothing after it.
func NewResult[T any](items []T, p Params, key func(T) Cursor) Result[T] {
	if items == nil {
		items = []T{}
	}
	res := Result[T]{Data: items}
	if len(items) > 0 && len(items) == p.Take {
		c := key(items[len(items)-1]).String()
		res.NextCursor = &c
	}
	return res
}
