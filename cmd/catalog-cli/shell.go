package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/usecase"
)

const helpText = `commands:
  search <text>          search by name (empty clears)
  filter <key> <value>   key: category style metal clarity rarity workmanship tags from to
  sort <field> [asc|desc]
                         field: name price cost caratWeight acquisitionDate createdAt updatedAt stock
  clear                  reset all filters
  page <n> | next | prev
  limit <n>
  show                   print the current page
  get <id>               product details
  categories             categories on the current page
  delete <id>
  refresh
  quit`

// coordinator — то, чем shell управляет.
type coordinator interface {
	Snapshot() usecase.ViewState
	UpdateFilters(fn func(*domain.FilterParams))
	SetFilters(f domain.FilterParams)
	SetPage(page int)
	SetLimit(limit int)
	Refresh()
	GetProduct(ctx context.Context, id string) (*domain.Product, bool)
	Categories() []string
	DeleteProduct(ctx context.Context, id string) error
}

type shell struct {
	coord coordinator

	mu  sync.Mutex
	out io.Writer
}

func newShell(coord coordinator, out io.Writer) *shell {
	return &shell{coord: coord, out: out}
}

func domainPage(limit int) domain.Pagination {
	return domain.Pagination{Page: 1, Limit: limit}.Normalize()
}

// watch — печать итоговых состояний загрузки.
func (s *shell) watch(states <-chan usecase.ViewState) {
	for st := range states {
		switch st.Phase {
		case usecase.PhaseResolved:
			s.printPage(st)
		case usecase.PhaseFailed:
			s.printf("error: %s\n", st.Error)
		}
	}
}

// exec — выполнить одну команду; false — выход.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return false
	case "help", "?":
		s.printf("%s\n", helpText)
	case "search":
		text := strings.Join(args, " ")
		s.coord.UpdateFilters(func(f *domain.FilterParams) { f.Search = text })
	case "filter":
		if len(args) < 2 {
			s.printf("usage: filter <key> <value>\n")
			return true
		}
		f := s.coord.Snapshot().Filters
		if err := applyFilter(&f, args[0], strings.Join(args[1:], " ")); err != nil {
			s.printf("error: %v\n", err)
			return true
		}
		s.coord.SetFilters(f)
	case "sort":
		if len(args) == 0 {
			s.printf("usage: sort <field> [asc|desc]\n")
			return true
		}
		order := domain.SortAsc
		if len(args) > 1 && strings.EqualFold(args[1], string(domain.SortDesc)) {
			order = domain.SortDesc
		}
		s.coord.UpdateFilters(func(f *domain.FilterParams) {
			f.SortBy = args[0]
			f.SortOrder = order
		})
	case "clear":
		s.coord.SetFilters(domain.FilterParams{})
	case "page":
		n, err := positiveArg(args)
		if err != nil {
			s.printf("usage: page <n>\n")
			return true
		}
		s.coord.SetPage(n)
	case "next", "prev":
		st := s.coord.Snapshot()
		page := st.Pagination.Page + 1
		if cmd == "prev" {
			page = st.Pagination.Page - 1
		}
		if page < 1 || (cmd == "next" && st.Pagination.TotalPages > 0 && page > st.Pagination.TotalPages) {
			s.printf("no %s page\n", cmd)
			return true
		}
		s.coord.SetPage(page)
	case "limit":
		n, err := positiveArg(args)
		if err != nil {
			s.printf("usage: limit <n>\n")
			return true
		}
		s.coord.SetLimit(n)
	case "show":
		s.printPage(s.coord.Snapshot())
	case "get":
		if len(args) != 1 {
			s.printf("usage: get <id>\n")
			return true
		}
		p, ok := s.coord.GetProduct(ctx, args[0])
		if !ok {
			s.printf("error: %s\n", s.coord.Snapshot().Error)
			return true
		}
		s.printProduct(p)
	case "categories":
		cats := s.coord.Categories()
		if len(cats) == 0 {
			s.printf("no categories on this page\n")
			return true
		}
		s.printf("%s\n", strings.Join(cats, ", "))
	case "delete":
		if len(args) != 1 {
			s.printf("usage: delete <id>\n")
			return true
		}
		if err := s.coord.DeleteProduct(ctx, args[0]); err != nil {
			var ue *domain.UserError
			if errors.As(err, &ue) {
				s.printf("error: %s\n", ue.Message)
			} else {
				s.printf("error: %v\n", err)
			}
			return true
		}
		s.printf("deleted %s\n", args[0])
	case "refresh":
		s.coord.Refresh()
	default:
		s.printf("unknown command %q, type 'help'\n", cmd)
	}
	return true
}

// applyFilter — одно поле фильтра по ключу команды. Пустое значение "-" сбрасывает поле.
func applyFilter(f *domain.FilterParams, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "-" {
		value = ""
	}
	key = strings.ToLower(key)
	switch key {
	case "category":
		f.Category = value
	case "style":
		f.Style = value
	case "metal":
		f.Metal = value
	case "clarity":
		f.ClarityGrade = value
	case "rarity":
		f.Rarity = value
	case "workmanship":
		f.WorkmanshipGrade = value
	case "tags":
		f.Tags = nil
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	case "from", "to":
		var at time.Time
		if value != "" {
			parsed, err := time.Parse("2006-01-02", value)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD, got %q", value)
			}
			at = parsed
		}
		if key == "from" {
			f.DateFrom = at
		} else {
			f.DateTo = at
		}
	default:
		return fmt.Errorf("unknown filter %q", key)
	}
	return nil
}

func positiveArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("one argument expected")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("positive number expected, got %q", args[0])
	}
	return n, nil
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) printPage(st usecase.ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Result == nil {
		fmt.Fprintf(s.out, "(%s) nothing loaded yet\n", st.Phase)
		return
	}
	res := st.Result
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for i := range res.Items {
		p := &res.Items[i]
		stock := "-"
		if q := p.StockQuantity(); q != nil {
			stock = strconv.Itoa(*q)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n", p.ID, p.ProductType, p.Name, p.Price, stock, p.CategoryValue())
	}
	_ = tw.Flush()
	fmt.Fprintf(s.out, "page %d/%d, %d items total, %d per page\n",
		res.PageNumber, res.TotalPages, res.TotalElements, res.PageSize)
	if st.Error != "" {
		fmt.Fprintf(s.out, "last error: %s\n", st.Error)
	}
}

func (s *shell) printProduct(p *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s\t%s\n", k, v)
		}
	}
	row("id", p.ID)
	row("type", string(p.ProductType))
	row("name", p.Name)
	row("description", p.Description)
	row("price", strconv.FormatFloat(p.Price, 'f', 2, 64))
	row("cost", strconv.FormatFloat(p.Cost, 'f', 2, 64))
	row("supplier", p.Supplier)
	row("category", p.CategoryValue())
	row("tags", strings.Join(p.Tags, ", "))
	if q := p.StockQuantity(); q != nil {
		row("stock", strconv.Itoa(*q))
	}
	if p.ReorderThreshold != nil {
		row("reorder threshold", strconv.Itoa(*p.ReorderThreshold))
	}
	if !p.AcquisitionDate.IsZero() {
		row("acquired", p.AcquisitionDate.Format("2006-01-02"))
	}
	_ = tw.Flush()
}
