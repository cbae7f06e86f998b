package postgres

import (
	"fmt"
	"strings"

	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
)

// whereBuilder accumulates AND-ed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends a condition. Each %s in cond is replaced with the next
// placeholder, one per value.
func (b *whereBuilder) add(cond string, values ...any) {
	placeholders := make([]any, len(values))
	for i, v := range values {
		b.args = append(b.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(b.args))
	}
	b.conds = append(b.conds, fmt.Sprintf(cond, placeholders...))
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// drafts restricts rows in table alias t to what scope allows. Drafts are
// only ever matched for their own author.
func (b *whereBuilder) drafts(t string, scope domain.DraftScope) {
	switch {
	case scope.Include == domain.IncludePublished || scope.ViewerID == "":
		b.add(t + ".draft = FALSE")
	case scope.Include == domain.IncludeDrafts:
		b.add(t+".draft = TRUE AND "+t+".user_id = %s", scope.ViewerID)
	default:
		b.add("("+t+".draft = FALSE OR "+t+".user_id = %s)", scope.ViewerID)
	}
}

// page appends the keyset cursor and returns the ORDER BY / LIMIT tail.
func (b *whereBuilder) page(t string, p pagination.Params) string {
	dir, cmp := "ASC", ">"
	if p.Descending {
		dir, cmp = "DESC", "<"
	}
	switch {
	case p.Cursor == nil:
	case p.Cursor.ID == "":
		b.add(t+".created_at "+cmp+" %s", p.Cursor.CreatedAt)
	default:
		b.add("("+t+".created_at, "+t+".id) "+cmp+" (%s, %s)", p.Cursor.CreatedAt, p.Cursor.ID)
	}
	b.args = append(b.args, p.Take)
	return fmt.Sprintf(" ORDER BY %s.created_at %s, %s.id %s LIMIT $%d", t, dir, t, dir, len(b.args))
}
