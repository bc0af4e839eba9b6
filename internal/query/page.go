package query

import (
	"fmt"
	"math"

	"fintrack/internal/core"
)

// PageSize is the fixed number of items per list page.
const PageSize = 10

// MaxPage is the highest page number whose offset fits in an int.
const MaxPage = (math.MaxInt-1)/PageSize + 1

// Page is one window of a filtered result set.
type Page[T any] struct {
	Items  []T
	Total  int // matches before pagination
	Number int // 1-based
	Size   int
}

func (p Page[T]) HasNext() bool {
	return p.Size > 0 && p.Number*p.Size < p.Total
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

// Paginate sets the window for the given 1-based page number.
func Paginate(page int) Predicate {
	return func(q Query) Query {
		if page < 1 {
			page = 1
		}
		if page > MaxPage {
			page = MaxPage
		}
		return q.Window(PageSize, (page-1)*PageSize)
	}
}

// ErrInvalidPage is returned for pages outside the result set.
var ErrInvalidPage = fmt.Errorf("%w: invalid page", core.ErrNotFound)

// CheckPage rejects a page past the end of the results. Page 1 is always
// valid, even when nothing matched.
func CheckPage(number, total int) error {
	if number < 1 || number > MaxPage {
		return ErrInvalidPage
	}
	if number > 1 && (number-1)*PageSize >= total {
		return ErrInvalidPage
	}
	return nil
}

// NewPage assembles a page after CheckPage has passed.
func NewPage[T any](items []T, total, number int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Number: number, Size: PageSize}
}
