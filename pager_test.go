package testplan_test

import (
	"testing"

	"github.com/fwojciec/testplan"
	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int
		size int
		want int
	}{
		{"empty collection has one page", 0, 4, 1},
		{"exact fit", 8, 4, 2},
		{"partial last page", 9, 4, 3},
		{"single item", 1, 4, 1},
		{"non-positive size uses default", 5, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, testplan.PageCount(tt.n, tt.size))
		})
	}
}

func TestPageBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, n    int
		start, end int
	}{
		{"first page", 1, 10, 0, 4},
		{"middle page", 2, 10, 4, 8},
		{"short last page", 3, 10, 8, 10},
		{"past the end", 4, 10, 10, 10},
		{"zero page", 0, 10, 0, 0},
		{"empty collection", 1, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start, end := testplan.PageBounds(tt.page, tt.n, 4)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestClampPage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, testplan.ClampPage(0, 10, 4))
	assert.Equal(t, 3, testplan.ClampPage(7, 10, 4))
	assert.Equal(t, 2, testplan.ClampPage(2, 10, 4))
	assert.Equal(t, 1, testplan.ClampPage(3, 0, 4))
}
