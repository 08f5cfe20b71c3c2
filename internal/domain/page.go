package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// DefaultPageLimit — размер страницы по умолчанию.
const DefaultPageLimit = 12

// SortOrder — направление сортировки.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterParams — фильтры каталога. Пустое поле — нет ограничения.
type FilterParams struct {
	Search           string    `json:"search,omitempty"`
	Category         string    `json:"category,omitempty"`
	Style            string    `json:"style,omitempty"`
	Metal            string    `json:"metal,omitempty"`
	ClarityGrade     string    `json:"clarityGrade,omitempty"`
	Rarity           string    `json:"rarity,omitempty"`
	WorkmanshipGrade string    `json:"workmanshipGrade,omitempty"`
	DateFrom         time.Time `json:"dateFrom,omitempty"`
	DateTo           time.Time `json:"dateTo,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	SortBy           string    `json:"sortBy,omitempty"`
	SortOrder        SortOrder `json:"sortOrder,omitempty"`
}

// Clone — копия с собственным слайсом тегов.
func (f FilterParams) Clone() FilterParams {
	f.Tags = slices.Clone(f.Tags)
	return f
}

// Pagination — параметры страницы. TotalItems/TotalPages производные.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Normalize — page >= 1, limit > 0.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// PageResult — страница каталога. PageNumber считается с 1.
type PageResult struct {
	Items         []Product `json:"items"`
	TotalPages    int       `json:"totalPages"`
	TotalElements int       `json:"totalElements"`
	PageSize      int       `json:"pageSize"`
	PageNumber    int       `json:"pageNumber"`
}

// Clone — глубокая копия страницы.
func (r *PageResult) Clone() *PageResult {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Items = make([]Product, len(r.Items))
	for i := range r.Items {
		cp.Items[i] = *r.Items[i].Clone()
	}
	return &cp
}

// PageKey — канонический ключ списка: {page, limit} ∪ непустые фильтры.
// encoding/json сортирует ключи map, теги сортируются отдельно,
// поэтому структурно равные входы дают одну и ту же строку.
func PageKey(f FilterParams, p Pagination) string {
	p = p.Normalize()
	m := map[string]any{
		"page":  p.Page,
		"limit": p.Limit,
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("search", f.Search)
	put("category", f.Category)
	put("style", f.Style)
	put("metal", f.Metal)
	put("clarityGrade", f.ClarityGrade)
	put("rarity", f.Rarity)
	put("workmanshipGrade", f.WorkmanshipGrade)
	put("sortBy", f.SortBy)
	put("sortOrder", string(f.SortOrder))
	if !f.DateFrom.IsZero() {
		m["dateFrom"] = f.DateFrom.UTC().Format(time.RFC3339Nano)
	}
	if !f.DateTo.IsZero() {
		m["dateTo"] = f.DateTo.UTC().Format(time.RFC3339Nano)
	}
	if len(f.Tags) > 0 {
		tags := slices.Clone(f.Tags)
		slices.Sort(tags)
		m["tags"] = tags
	}

	b, _ := json.Marshal(m) // значения только строки/числа, ошибки быть не может
	return string(b)
}
