package storage

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/query"
)

// columnSet maps query fields to SQL expressions. Only mapped fields can be
// rendered, so caller-supplied names never reach the SQL text.
type columnSet map[query.Field]string

var (
	categoryColumns = columnSet{
		query.FieldID:    "c.id",
		query.FieldOwner: "c.owner_id",
		query.FieldName:  "c.name",
	}
	transactionColumns = columnSet{
		query.FieldID:          "t.id",
		query.FieldOwner:       "c.owner_id",
		query.FieldTitle:       "t.title",
		query.FieldAmount:      "t.amount",
		query.FieldType:        "t.transaction_type",
		query.FieldDescription: "t.description",
		query.FieldDate:        "t.date",
		query.FieldCategory:    "c.name",
		query.FieldCategoryID:  "t.category_id",
	}
)

// renderWhere turns the query's clauses into a WHERE fragment (possibly empty)
// and its positional arguments.
func (cols columnSet) renderWhere(q query.Query) (string, []any, error) {
	if len(q.Where) == 0 {
		return "", nil, nil
	}

	var (
		clauses []string
		args    []any
	)
	for _, clause := range q.Where {
		if len(clause) == 0 {
			continue
		}
		alts := make([]string, 0, len(clause))
		for _, cond := range clause {
			frag, condArgs, err := cols.renderCondition(cond)
			if err != nil {
				return "", nil, err
			}
			alts = append(alts, frag)
			args = append(args, condArgs...)
		}
		if len(alts) == 1 {
			clauses = append(clauses, alts[0])
		} else {
			clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (cols columnSet) renderCondition(c query.Condition) (string, []any, error) {
	col, ok := cols[c.Field]
	if !ok {
		return "", nil, fmt.Errorf("unsupported field %q", c.Field)
	}

	switch c.Op {
	case query.Eq:
		return col + " = ?", []any{sqlValue(c.Value)}, nil
	case query.IContains:
		term, ok := c.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("icontains on %q needs a string, got %T", c.Field, c.Value)
		}
		return foldContainsFunc + "(" + col + ", ?)", []any{term}, nil
	case query.Between:
		return col + " BETWEEN ? AND ?", []any{sqlValue(c.Value), sqlValue(c.Upper)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %s", c.Op)
	}
}

// renderOrder always ends with the id so pagination is deterministic.
func (cols columnSet) renderOrder(q query.Query) (string, error) {
	id := cols[query.FieldID]
	if q.SortBy == "" || q.SortBy == query.FieldID {
		return " ORDER BY " + id + " ASC", nil
	}
	col, ok := cols[q.SortBy]
	if !ok {
		return "", fmt.Errorf("unsupported sort field %q", q.SortBy)
	}
	return " ORDER BY " + col + " ASC, " + id + " ASC", nil
}

func renderLimit(q query.Query) (string, []any) {
	if q.Limit <= 0 {
		if q.Offset > 0 {
			return " LIMIT -1 OFFSET ?", []any{q.Offset}
		}
		return "", nil
	}
	return " LIMIT ? OFFSET ?", []any{q.Limit, q.Offset}
}

func sqlValue(v any) any {
	switch val := v.(type) {
	case core.Date:
		return val.String()
	case core.UserID:
		return int64(val)
	case core.TransactionType:
		return string(val)
	default:
		return v
	}
}
