// Package query describes store-agnostic filters over categories and transactions.
//
// A Query is an AND of clauses; each clause is an OR of conditions. Stores
// translate it into their own form: the SQLite repository renders parameterized
// SQL over an allow-listed column map, the memory store evaluates it in Go.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Field names a filterable or sortable attribute.
type Field string

const (
	FieldID          Field = "id"
	FieldOwner       Field = "owner"
	FieldName        Field = "name"
	FieldTitle       Field = "title"
	FieldAmount      Field = "amount"
	FieldType        Field = "transaction_type"
	FieldDescription Field = "description"
	FieldDate        Field = "date"
	FieldCategory    Field = "category" // category name, on transactions
	FieldCategoryID  Field = "category_id"
)

type Op int

const (
	// Eq is exact equality on the typed value.
	Eq Op = iota
	// IContains is a case-insensitive substring match on the field's text form.
	IContains
	// Between is an inclusive range [Value, Upper].
	Between
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "eq"
	case IContains:
		return "icontains"
	case Between:
		return "between"
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}

// Condition is a single predicate. Value types by field:
// id/category_id int64, owner core.UserID, amount float64, date core.Date,
// transaction_type core.TransactionType, everything else string.
// IContains always carries a string.
type Condition struct {
	Field Field
	Op    Op
	Value any
	Upper any
}

// Clause is satisfied when any of its conditions holds.
type Clause []Condition

type Query struct {
	Where  []Clause
	SortBy Field // empty means insertion order
	Limit  int   // zero means no limit
	Offset int
}

// Predicate folds one optional filter into a query.
type Predicate func(Query) Query

// Build applies predicates to base in order.
func Build(base Query, preds ...Predicate) Query {
	q := base
	for _, p := range preds {
		if p != nil {
			q = p(q)
		}
	}
	return q
}

// ForOwner is the base query for everything visible to owner.
func ForOwner(owner core.UserID) Query {
	return Query{}.And(EqualTo(FieldOwner, owner))
}

// And appends a clause made of the given alternatives.
func (q Query) And(alternatives ...Condition) Query {
	if len(alternatives) == 0 {
		return q
	}
	where := make([]Clause, len(q.Where), len(q.Where)+1)
	copy(where, q.Where)
	q.Where = append(where, Clause(alternatives))
	return q
}

func (q Query) OrderBy(f Field) Query {
	q.SortBy = f
	return q
}

// Window restricts the query to a slice of results.
func (q Query) Window(limit, offset int) Query {
	q.Limit = limit
	q.Offset = offset
	return q
}

// Where is a predicate adding one clause.
func Where(alternatives ...Condition) Predicate {
	return func(q Query) Query { return q.And(alternatives...) }
}

func EqualTo(f Field, v any) Condition {
	return Condition{Field: f, Op: Eq, Value: v}
}

func Contains(f Field, s string) Condition {
	return Condition{Field: f, Op: IContains, Value: s}
}

func InRange(f Field, lo, hi any) Condition {
	return Condition{Field: f, Op: Between, Value: lo, Upper: hi}
}

// AmountText is the text form of an amount used for substring search.
func AmountText(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Text is the text form of a field value used for substring search. Every
// store renders values through it so searches agree across backends.
func Text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return AmountText(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case core.UserID:
		return strconv.FormatInt(int64(x), 10)
	case core.TransactionType:
		return string(x)
	case core.Date:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// ContainsFold reports whether sub occurs in s ignoring case.
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
