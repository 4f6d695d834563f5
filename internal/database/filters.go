package database

import (
	"fmt"
	"strings"
)

// ListOptions carries the ordering and pagination knobs shared by every list
// query. OrderBy must name a column from the entity's allowed set; ordering is
// made deterministic by an id tie-break. Limit is clamped to MaxListLimit.
type ListOptions struct {
	OrderBy string
	Reverse bool
	Skip    int
	Limit   int
}

// DefaultListLimit and MaxListLimit bound list responses.
const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// filter is implemented by the typed per-entity filter structs. Each returns
// an explicit conjunction of equality predicates over its known column set,
// the typed replacement for composing queries from arbitrary key/value pairs.
type filter interface {
	clauses() (conds []string, args []interface{})
}

// UserFilter selects users by any subset of its fields.
type UserFilter struct {
	ID      *int64
	Name    *string
	Deleted *bool
}

func (f UserFilter) clauses() ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}
	if f.Name != nil {
		conds = append(conds, "name = ?")
		args = append(args, *f.Name)
	}
	if f.Deleted != nil {
		conds = append(conds, "deleted = ?")
		args = append(args, *f.Deleted)
	}
	return conds, args
}

// InvitationFilter selects invitations by any subset of its fields.
type InvitationFilter struct {
	ID     *int64
	FromID *int64
	ToID   *int64
	Status *string
}

func (f InvitationFilter) clauses() ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}
	if f.FromID != nil {
		conds = append(conds, "from_id = ?")
		args = append(args, *f.FromID)
	}
	if f.ToID != nil {
		conds = append(conds, "to_id = ?")
		args = append(args, *f.ToID)
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *f.Status)
	}
	return conds, args
}

// GameFilter selects games by any subset of its fields. Column references are
// qualified because the game list query joins the users table twice for the
// player names.
type GameFilter struct {
	ID           *int64
	InvitationID *int64
	Player1      *int64
	Player2      *int64
	Whomst       *int64
	Winner       *int64
}

func (f GameFilter) clauses() ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.ID != nil {
		conds = append(conds, "g.id = ?")
		args = append(args, *f.ID)
	}
	if f.InvitationID != nil {
		conds = append(conds, "g.invitation_id = ?")
		args = append(args, *f.InvitationID)
	}
	if f.Player1 != nil {
		conds = append(conds, "g.player_1 = ?")
		args = append(args, *f.Player1)
	}
	if f.Player2 != nil {
		conds = append(conds, "g.player_2 = ?")
		args = append(args, *f.Player2)
	}
	if f.Whomst != nil {
		conds = append(conds, "g.whomst = ?")
		args = append(args, *f.Whomst)
	}
	if f.Winner != nil {
		conds = append(conds, "g.winner = ?")
		args = append(args, *f.Winner)
	}
	return conds, args
}

// MoveFilter selects moves by any subset of its fields.
type MoveFilter struct {
	ID     *int64
	UserID *int64
	GameID *int64
}

func (f MoveFilter) clauses() ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}
	if f.UserID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.GameID != nil {
		conds = append(conds, "game_id = ?")
		args = append(args, *f.GameID)
	}
	return conds, args
}

// buildListQuery assembles WHERE/ORDER BY/LIMIT/OFFSET for a list query.
// `defaultOrder` is the entity's natural sort column; `allowedOrder` is the
// set of columns a caller may order by, which keeps user-supplied order_by
// values away from the SQL text. `idCol` breaks ordering ties.
func buildListQuery(f filter, opts ListOptions, defaultOrder, idCol string, allowedOrder map[string]string) (string, []interface{}, error) {
	conds, args := f.clauses()

	var sb strings.Builder
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	orderCol := defaultOrder
	if opts.OrderBy != "" {
		col, ok := allowedOrder[opts.OrderBy]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrBadOrderColumn, opts.OrderBy)
		}
		orderCol = col
	}
	dir := "ASC"
	if opts.Reverse {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, %s %s", orderCol, dir, idCol, dir)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, skip)

	return sb.String(), args, nil
}
