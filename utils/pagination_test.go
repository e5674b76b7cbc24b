package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	p := NewPage("", "")
	assert.Equal(t, Page{Page: 1, PageSize: 20}, p)

	p = NewPage("3", "10")
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 10, p.Limit())

	p = NewPage("-1", "1000")
	assert.Equal(t, Page{Page: 1, PageSize: MaxPageSize}, p)

	p = NewPage("x", "y")
	assert.Equal(t, Page{Page: 1, PageSize: 20}, p)
}

func TestNewPage_HugePageStaysPositive(t *testing.T) {
	p := NewPage("9223372036854775807", "100")
	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset())
	assert.Equal(t, (MaxPage-1)*100, p.Offset())

	huge := Page{Page: 1 << 62, PageSize: 100}
	assert.Equal(t, (MaxPage-1)*100, huge.Offset())
	assert.Equal(t, MaxPage, huge.Meta(10).Page)
}

func TestPageMeta(t *testing.T) {
	p := Page{Page: 2, PageSize: 10}
	assert.Equal(t, PageMeta{Page: 2, PageSize: 10, Total: 25, TotalPages: 3}, p.Meta(25))
	assert.Equal(t, PageMeta{Page: 2, PageSize: 10, Total: 0, TotalPages: 0}, p.Meta(0))

	// нулевое значение Page ведет себя как страница по умолчанию
	var zero Page
	assert.Equal(t, 0, zero.Offset())
	assert.Equal(t, DefaultPageSize, zero.Limit())
}
