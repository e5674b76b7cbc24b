package utils

import "strconv"

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage держит (Page-1)*PageSize далеко от переполнения int
	MaxPage = 1_000_000
)

// Page - параметры постраничной выборки
type Page struct {
	Page     int
	PageSize int
}

// PageMeta - метаданные списка в ответе
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPage разбирает page/pageSize из строк запроса; некорректные значения заменяются значениями по умолчанию
func NewPage(page, pageSize string) Page {
	p := Page{Page: DefaultPage, PageSize: DefaultPageSize}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(pageSize); err == nil && n > 0 {
		p.PageSize = n
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

// Offset возвращает смещение для SQL
func (p Page) Offset() int {
	return (p.normalized().Page - 1) * p.normalized().PageSize
}

// Limit возвращает размер страницы для SQL
func (p Page) Limit() int {
	return p.normalized().PageSize
}

// Meta строит метаданные для общего количества записей
func (p Page) Meta(total int64) PageMeta {
	n := p.normalized()
	pages := 0
	if total > 0 {
		pages = int((total + int64(n.PageSize) - 1) / int64(n.PageSize))
	}
	return PageMeta{Page: n.Page, PageSize: n.PageSize, Total: total, TotalPages: pages}
}

func (p Page) normalized() Page {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}
