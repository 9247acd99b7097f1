package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/eventhub/internal/model"
)

// eventSearcher is implemented by stores that can filter and page in the
// database instead of in memory.
type eventSearcher interface {
	Search(ctx context.Context, q EventQuery) (EventPage, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeTerm(s string) string { return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%" }

// Search runs EventQuery in SQL. It follows the same rules as
// EventQuery.Matches and FilterEvents: date order, ties broken by id.
func (r *MySQLEventRepo) Search(ctx context.Context, q EventQuery) (EventPage, error) {
	q = q.Normalize()
	where := []string{}
	args := []any{}

	if q.Category != "" && !strings.EqualFold(q.Category, "all") {
		where = append(where, "LOWER(category) = ?")
		args = append(args, strings.ToLower(q.Category))
	}
	if q.City != "" {
		where = append(where, "LOWER(city) = ?")
		args = append(args, strings.ToLower(q.City))
	}
	if q.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ? OR LOWER(city) LIKE ?)")
		term := likeTerm(q.Search)
		args = append(args, term, term, term, term)
	}
	if q.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *q.MaxPrice)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE `+cond, args...).Scan(&total); err != nil {
		return EventPage{}, fmt.Errorf("count events: %w", err)
	}
	page := EventPage{
		Items:      []model.Event{},
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
	offset := q.offset()
	if q.Page > page.TotalPages || offset >= total {
		return page, nil
	}

	dataSQL := `SELECT ` + eventColumns + `
		FROM events
		WHERE ` + cond + `
		ORDER BY starts_at ASC, id COLLATE utf8mb4_bin ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.Limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return EventPage{}, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return EventPage{}, fmt.Errorf("scan event: %w", err)
		}
		page.Items = append(page.Items, e)
	}
	if err := rows.Err(); err != nil {
		return EventPage{}, err
	}
	return page, nil
}
