package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// MaxNameLength bounds category names and transaction titles.
	MaxNameLength = 50
	// DateLayout is the canonical text form of a Date.
	DateLayout = "2006-01-02"
)

type (
	// UserID identifies an authenticated user. Zero is never a valid identity.
	UserID int64

	TransactionType string

	// Date is a calendar date without a time of day.
	Date struct {
		time.Time
	}

	Category struct {
		ID    int64
		Name  string
		Owner *UserID // nil once the owning user has been removed
	}

	Transaction struct {
		ID          int64
		Title       string
		Amount      float64
		Type        TransactionType
		Description string
		Date        Date
		Category    Category
	}
)

// ParseTransactionType accepts only the two known kinds.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.TrimSpace(s)); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%q is not a valid choice", s)
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal reports whether both values name the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

// OwnedBy reports whether the category belongs to id.
func (c Category) OwnedBy(id UserID) bool {
	return c.Owner != nil && *c.Owner == id
}

// OwnerRef returns a pointer to a copy of id, for use as a Category owner.
func OwnerRef(id UserID) *UserID {
	return &id
}

// EffectiveOwner is the owner of the transaction's category.
func (t Transaction) EffectiveOwner() *UserID {
	return t.Category.Owner
}

func (c Category) Validate() error {
	verr := NewValidationError()
	validateName(verr, "name", c.Name)
	return verr.OrNil()
}

func (t Transaction) Validate() error {
	verr := NewValidationError()
	validateName(verr, "title", t.Title)
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		verr.Add("amount", "A valid number is required.")
	}
	if !t.Type.Valid() {
		verr.Add("transaction_type", fmt.Sprintf("%q is not a valid choice.", string(t.Type)))
	}
	if strings.TrimSpace(t.Description) == "" {
		verr.Add("description", "This field may not be blank.")
	}
	if t.Category.ID == 0 {
		verr.Add("category", "This field is required.")
	}
	return verr.OrNil()
}

func validateName(verr *ValidationError, field, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		verr.Add(field, "This field may not be blank.")
	case len([]rune(value)) > MaxNameLength:
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength))
	}
}
