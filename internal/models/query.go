package models

import (
	"strings"

	"github.com/samber/lo"
)

type SortKey string

const (
	SortCreatedAt SortKey = FieldCreatedAt
	SortDueDate   SortKey = FieldDueDate
	SortCompany   SortKey = FieldCompany
	SortRole      SortKey = FieldRole
	SortStatus    SortKey = FieldStatus
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

const DefaultPageSize = 10

var (
	PageSizes = []int{10, 20, 50}
	SortKeys  = []SortKey{SortCreatedAt, SortDueDate, SortCompany, SortRole, SortStatus}

	// SearchColumns are matched case-insensitively by the search term.
	SearchColumns = []string{
		FieldCompany,
		FieldRole,
		FieldStatus,
		FieldIndustry,
		FieldFunction,
		FieldNextAction,
	}
)

// Query describes one list page. Page is 1-based.
type Query struct {
	Search   string    `json:"q"`
	Status   string    `json:"status"`
	Sort     SortKey   `json:"sort"`
	Dir      Direction `json:"dir"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// Normalized fills defaults and drops unsupported values.
func (q Query) Normalized() Query {
	q.Search = SearchTerm(q.Search)
	q.Status = strings.TrimSpace(q.Status)
	if !lo.Contains(SortKeys, q.Sort) {
		q.Sort = SortCreatedAt
	}
	if q.Dir != Asc && q.Dir != Desc {
		if q.Sort == SortCreatedAt {
			q.Dir = Desc
		} else {
			q.Dir = Asc
		}
	}
	if !lo.Contains(PageSizes, q.PageSize) {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// SearchTerm trims the term and strips wildcard characters.
func SearchTerm(raw string) string {
	term := strings.NewReplacer("%", "", "*", "").Replace(raw)
	return strings.TrimSpace(term)
}

type Page struct {
	Items    []Application `json:"data"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

func (p *Page) Pages() int {
	return PageCount(p.Total, p.PageSize)
}

// Without returns a copy of the page with the given application removed.
func (p *Page) Without(id string) *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Items = lo.Reject(p.Items, func(a Application, _ int) bool { return a.ID == id })
	if removed := len(p.Items) - len(out.Items); removed > 0 {
		out.Total = max(0, p.Total-removed)
	}
	return &out
}

// StatusCounts tallies statuses of the page items.
func (p *Page) StatusCounts() map[string]int {
	counts := lo.CountValuesBy(p.Items, func(a Application) string {
		return deref(a.Status)
	})
	delete(counts, "")
	return counts
}

// PageCount is the number of pages for total rows, at least 1.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
