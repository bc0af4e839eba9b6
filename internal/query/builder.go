package query

import (
	"fmt"

	"fintrack/internal/core"
)

// Sortable fields per entity. sort_by values outside these sets are rejected.
var (
	categorySortFields = map[string]Field{
		"id":   FieldID,
		"name": FieldName,
	}
	transactionSortFields = map[string]Field{
		"id":               FieldID,
		"title":            FieldTitle,
		"amount":           FieldAmount,
		"transaction_type": FieldType,
		"description":      FieldDescription,
		"date":             FieldDate,
		"category":         FieldCategory,
	}
)

// CategoryQuery builds the owner-scoped list query for categories.
func CategoryQuery(owner core.UserID, p CategoryParams) (Query, error) {
	sort, err := sortField(categorySortFields, p.SortBy)
	if err != nil {
		return Query{}, err
	}

	var preds []Predicate
	if p.ID != nil {
		preds = append(preds, Where(EqualTo(FieldID, *p.ID)))
	}
	if p.Name != nil {
		preds = append(preds, Where(Contains(FieldName, *p.Name)))
	}
	if p.Search != nil {
		preds = append(preds, Where(Contains(FieldName, *p.Search)))
	}
	if sort != "" {
		preds = append(preds, func(q Query) Query { return q.OrderBy(sort) })
	}
	preds = append(preds, Paginate(p.Page))

	return Build(ForOwner(owner), preds...), nil
}

// TransactionQuery builds the owner-scoped list query for transactions. The
// search term is one OR clause across every text-bearing field, ANDed with the
// other filters.
func TransactionQuery(owner core.UserID, p TransactionParams) (Query, error) {
	sort, err := sortField(transactionSortFields, p.SortBy)
	if err != nil {
		return Query{}, err
	}

	var preds []Predicate
	if p.ID != nil {
		preds = append(preds, Where(EqualTo(FieldID, *p.ID)))
	}
	if p.Title != nil {
		preds = append(preds, Where(Contains(FieldTitle, *p.Title)))
	}
	if p.Category != nil {
		preds = append(preds, Where(EqualTo(FieldCategory, *p.Category)))
	}
	if p.Type != nil {
		preds = append(preds, Where(EqualTo(FieldType, *p.Type)))
	}
	if p.Date != nil {
		preds = append(preds, Where(EqualTo(FieldDate, *p.Date)))
	}
	if p.Amount != nil {
		preds = append(preds, Where(EqualTo(FieldAmount, *p.Amount)))
	}
	if p.Search != nil {
		preds = append(preds, Search(*p.Search))
	}
	if sort != "" {
		preds = append(preds, func(q Query) Query { return q.OrderBy(sort) })
	}
	preds = append(preds, Paginate(p.Page))

	return Build(ForOwner(owner), preds...), nil
}

// Search matches term against title, amount, type, category name, date and
// description.
func Search(term string) Predicate {
	return Where(
		Contains(FieldTitle, term),
		Contains(FieldAmount, term),
		Contains(FieldType, term),
		Contains(FieldCategory, term),
		Contains(FieldDate, term),
		Contains(FieldDescription, term),
	)
}

// DateRange restricts transactions to [from, to] inclusive.
func DateRange(from, to core.Date) Predicate {
	return Where(InRange(FieldDate, from, to))
}

func sortField(allowed map[string]Field, requested *string) (Field, error) {
	if requested == nil {
		return "", nil
	}
	f, ok := allowed[*requested]
	if !ok {
		return "", core.FieldError("sort_by", fmt.Sprintf("Cannot sort by %q.", *requested))
	}
	return f, nil
}
