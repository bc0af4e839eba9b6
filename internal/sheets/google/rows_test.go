package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetRow(t *testing.T) {
	values := [][]any{
		{"Date", "Title", "Type", "Amount", "Category", "Description", "ID", "Category ID"},
		{"2024-03-10", "Lunch", "expense", 12.5, "Food", "d", "4", "1"},
		{"2024-03-10", "Pay", "income", 100, "Salary", "d", float64(9), float64(2)},
		{},
	}

	assert.Equal(t, 2, targetRow(values, 4))
	assert.Equal(t, 3, targetRow(values, 9), "numbers may come back as floats")
	assert.Equal(t, 5, targetRow(values, 10), "unknown ids append after the data")
	assert.Equal(t, []int{2}, rowsMatching(values, colCategoryID, 1))
	assert.Empty(t, rowsMatching(values, colCategoryID, 3))
	assert.Equal(t, "2024 Fintrack!A7:H7", rowRange("2024 Fintrack", 7))
}

func TestCellInt(t *testing.T) {
	_, ok := cellInt([]any{"x"}, 3)
	assert.False(t, ok)
	_, ok = cellInt([]any{"1.5"}, 0)
	assert.False(t, ok)
	n, ok := cellInt([]any{" 42 "}, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)
}
