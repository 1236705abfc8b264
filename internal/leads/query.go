package leads

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const leadColumns = "id, session_id, name, email, phone, service, additional_message, chat_history, created_at"

// buildListQuery renders the admin listing query for a SQL backend. bind
// renders the n-th placeholder and timeArg converts timestamps to the
// driver's storage representation.
func buildListQuery(f ListFilter, bind func(n int) string, timeArg func(time.Time) any) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return bind(len(args))
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		lowered := "%" + strings.ToLower(search) + "%"
		where = append(where, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s OR phone LIKE %s)",
			next(lowered), next(lowered), next("%"+search+"%")))
	}
	if service := strings.TrimSpace(f.Service); service != "" {
		where = append(where, fmt.Sprintf("LOWER(service) LIKE %s", next("%"+strings.ToLower(service)+"%")))
	}
	if !f.Day.IsZero() {
		start, end := f.dayBounds()
		where = append(where, fmt.Sprintf("created_at >= %s AND created_at < %s", next(timeArg(start)), next(timeArg(end))))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(leadColumns)
	b.WriteString(" FROM leads")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	limit := f.Limit
	if limit <= 0 && f.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT.
		limit = math.MaxInt32
	}
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(next(limit))
	}
	if f.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(next(f.Offset))
	}
	return b.String(), args
}
