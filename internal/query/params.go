package query

import (
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// CategoryParams are the optional list parameters for categories. Nil means
// the parameter was not supplied.
type CategoryParams struct {
	ID     *int64
	Name   *string
	Search *string
	SortBy *string
	Page   int
}

// TransactionParams are the optional list parameters for transactions.
type TransactionParams struct {
	ID       *int64
	Title    *string
	Category *string
	Type     *core.TransactionType
	Date     *core.Date
	Amount   *float64
	Search   *string
	SortBy   *string
	Page     int
}

// ParseCategoryParams reads list parameters from a query string. Empty values
// count as absent.
func ParseCategoryParams(v url.Values) (CategoryParams, error) {
	p := CategoryParams{}
	verr := core.NewValidationError()

	p.ID = parseID(v, verr)
	p.Name = optional(v, "name")
	p.Search = optional(v, "search")
	p.SortBy = optional(v, "sort_by")
	p.Page = parsePage(v, verr)

	return p, verr.OrNil()
}

// ParseTransactionParams reads list parameters from a query string. Empty
// values count as absent.
func ParseTransactionParams(v url.Values) (TransactionParams, error) {
	p := TransactionParams{}
	verr := core.NewValidationError()

	p.ID = parseID(v, verr)
	p.Title = optional(v, "title")
	p.Category = optional(v, "category")
	p.Search = optional(v, "search")
	p.SortBy = optional(v, "sort_by")
	p.Page = parsePage(v, verr)

	if s := optional(v, "transaction_type"); s != nil {
		t, err := core.ParseTransactionType(*s)
		if err != nil {
			verr.Add("transaction_type", "Select a valid choice. "+err.Error()+".")
		} else {
			p.Type = &t
		}
	}
	if s := optional(v, "date"); s != nil {
		d, err := core.ParseDate(*s)
		if err != nil {
			verr.Add("date", "Enter a valid date in YYYY-MM-DD format.")
		} else {
			p.Date = &d
		}
	}
	if s := optional(v, "amount"); s != nil {
		f, err := strconv.ParseFloat(*s, 64)
		if err != nil {
			verr.Add("amount", "Enter a number.")
		} else {
			p.Amount = &f
		}
	}

	return p, verr.OrNil()
}

func optional(v url.Values, key string) *string {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil
	}
	return &s
}

func parseID(v url.Values, verr *core.ValidationError) *int64 {
	s := optional(v, "id")
	if s == nil {
		return nil
	}
	id, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		verr.Add("id", "Enter a whole number.")
		return nil
	}
	return &id
}

func parsePage(v url.Values, verr *core.ValidationError) int {
	s := optional(v, "page")
	if s == nil {
		return 1
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		verr.Add("page", "Enter a whole number.")
		return 1
	}
	return n
}
