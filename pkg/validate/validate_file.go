package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/gemstock/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// ValidateFile — валидирует файл как JSON (объект или массив товаров) или JSONL
// и пишет валидные товары в writer по одному на строку.
func ValidateFile(ctx context.Context, validator ports.ProductValidator, filePath string, format InputFormat, ow io.Writer) (Report, error) {
	// auto по расширению
	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(filePath)) {
		case ".jsonl", ".ndjson":
			format = FormatJSONL
		default:
			format = FormatJSON
		}
	}

	var rep Report
	file, err := os.Open(filePath)
	if err != nil {
		return rep, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatJSON:
		raw, err := io.ReadAll(file)
		if err != nil {
			return rep, fmt.Errorf("read file: %w", err)
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			return validateJSONArray(ctx, validator, trimmed, ow)
		}
		product, err := ValidateProductFromJSON(ctx, validator, raw)
		if err != nil {
			rep.reject(0, err)
			return rep, err
		}
		if err := writeLine(ow, product); err != nil {
			return rep, err
		}
		rep.Valid++
		return rep, nil

	case FormatJSONL:
		return ValidateJSONLStream(ctx, validator, file, ow)

	default:
		return rep, fmt.Errorf("unsupported format: %s", format)
	}
}

// validateJSONArray — массив товаров: каждый элемент валидируется отдельно.
func validateJSONArray(ctx context.Context, validator ports.ProductValidator, raw []byte, ow io.Writer) (Report, error) {
	var rep Report
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return rep, fmt.Errorf("invalid json array: %w", err)
	}
	for i, item := range items {
		product, err := ValidateProductFromJSON(ctx, validator, item)
		if err != nil {
			rep.reject(i, err)
			continue
		}
		if err := writeLine(ow, product); err != nil {
			return rep, err
		}
		rep.Valid++
	}
	return rep, nil
}

func writeLine(ow io.Writer, v any) error {
	canonical, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := ow.Write(append(canonical, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
