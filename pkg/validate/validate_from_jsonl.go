package validate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Gunvolt24/gemstock/internal/ports"
)

// maxProblems — сколько ошибок по строкам запоминаем в отчёте; остальные только считаются.
const maxProblems = 20

// Problem — невалидная запись: номер строки JSONL (с 1) или индекс в массиве (с 0).
type Problem struct {
	Pos int
	Err error
}

// Report — итог проверки входа.
type Report struct {
	Valid    int
	Invalid  int
	Problems []Problem
}

func (r Report) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.Valid, r.Invalid)
}

func (r *Report) reject(pos int, err error) {
	r.Invalid++
	if len(r.Problems) < maxProblems {
		r.Problems = append(r.Problems, Problem{Pos: pos, Err: err})
	}
}

// ValidateJSONLStream — построчная проверка JSONL; валидные товары пишутся в ow канонически, по одному в строке.
// Пустые строки и строки-комментарии (#) пропускаются. Отмена ctx прерывает чтение.
func ValidateJSONLStream(ctx context.Context, validator ports.ProductValidator, ir io.Reader, ow io.Writer) (Report, error) {
	var rep Report

	scanner := bufio.NewScanner(ir)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		product, err := ValidateProductFromJSON(ctx, validator, line)
		if err != nil {
			rep.reject(lineNo, err)
			continue
		}
		if err := writeLine(ow, product); err != nil {
			return rep, err
		}
		rep.Valid++
	}
	if err := scanner.Err(); err != nil {
		return rep, fmt.Errorf("scan: %w", err)
	}
	return rep, nil
}
