package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// BuildPage — клиентская выборка поверх полного списка:
// поиск, фильтры вариантов, теги, диапазон дат, сортировка, затем срез страницы.
// Итоги считаются до пагинации. Исходный слайс не меняется.
func BuildPage(all []Product, f FilterParams, p Pagination) *PageResult {
	filtered := ApplyFilters(all, f)
	SortProducts(filtered, f.SortBy, f.SortOrder)
	return Paginate(filtered, p)
}

// ApplyFilters — отбор записей по фильтрам, в новый слайс.
func ApplyFilters(all []Product, f FilterParams) []Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Product, 0, len(all))
	for i := range all {
		p := &all[i]
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if !matchVariant(p, f) {
			continue
		}
		if !hasAllTags(p.Tags, f.Tags) {
			continue
		}
		if !inDateRange(p.AcquisitionDate, f.DateFrom, f.DateTo) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// matchVariant — фильтр по полю чужого варианта исключает запись.
func matchVariant(p *Product, f FilterParams) bool {
	jewelry := p.ProductType == TypeJewelry
	stone := p.ProductType == TypeLooseStone
	idol := p.ProductType == TypeCarvedIdol

	switch {
	case f.Category != "" && (!jewelry || p.Category != f.Category):
		return false
	case f.Style != "" && (!jewelry || p.Style != f.Style):
		return false
	case f.Metal != "" && (!jewelry || p.Metal != f.Metal):
		return false
	case f.ClarityGrade != "" && (!stone || p.ClarityGrade != f.ClarityGrade):
		return false
	case f.Rarity != "" && (!idol || p.Rarity != f.Rarity):
		return false
	case f.WorkmanshipGrade != "" && (!idol || p.WorkmanshipGrade != f.WorkmanshipGrade):
		return false
	}
	return true
}

func hasAllTags(have, want []string) bool {
	for _, t := range want {
		if !slices.Contains(have, t) {
			return false
		}
	}
	return true
}

// inDateRange — границы включительные, сравнение по календарной дате (UTC).
func inDateRange(at, from, to time.Time) bool {
	day := truncateDay(at)
	if !from.IsZero() && day.Before(truncateDay(from)) {
		return false
	}
	if !to.IsZero() && day.After(truncateDay(to)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortProducts — устойчивая сортировка на месте. Неизвестное поле — порядок шлюза.
func SortProducts(items []Product, sortBy string, order SortOrder) {
	less := comparator(sortBy)
	if less == nil {
		return
	}
	slices.SortStableFunc(items, func(a, b Product) int {
		c := less(&a, &b)
		if order == SortDesc {
			return -c
		}
		return c
	})
}

func comparator(sortBy string) func(a, b *Product) int {
	switch sortBy {
	case "name":
		return func(a, b *Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "price":
		return func(a, b *Product) int { return cmp.Compare(a.Price, b.Price) }
	case "cost":
		return func(a, b *Product) int { return cmp.Compare(a.Cost, b.Cost) }
	case "caratWeight":
		return func(a, b *Product) int { return cmp.Compare(a.CaratWeight, b.CaratWeight) }
	case "acquisitionDate":
		return func(a, b *Product) int { return a.AcquisitionDate.Compare(b.AcquisitionDate) }
	case "createdAt":
		return func(a, b *Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		return func(a, b *Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "stock":
		return func(a, b *Product) int { return cmp.Compare(stockOrZero(a), stockOrZero(b)) }
	}
	return nil
}

func stockOrZero(p *Product) int {
	if q := p.StockQuantity(); q != nil {
		return *q
	}
	return 0
}

// Paginate — срез (page-1)*limit .. page*limit, итоги по всему набору.
func Paginate(filtered []Product, p Pagination) *PageResult {
	p = p.Normalize()
	total := len(filtered)

	start := min((p.Page-1)*p.Limit, total)
	end := min(start+p.Limit, total)

	items := make([]Product, end-start)
	copy(items, filtered[start:end])

	return &PageResult{
		Items:         items,
		TotalPages:    (total + p.Limit - 1) / p.Limit,
		TotalElements: total,
		PageSize:      p.Limit,
		PageNumber:    p.Page,
	}
}

// Categories — уникальные значения категорий вариантов, по алфавиту.
func Categories(items []Product) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for i := range items {
		c := items[i].CategoryValue()
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
