package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Gunvolt24/gemstock/pkg/validate"
)

// CLI-приложение для валидации товаров каталога перед загрузкой в бэкенд.
func main() {
	inputPath := flag.String("in", "", "path to input (.json, .jsonl or .ndjson). If empty, reads JSONL from stdin.")
	formatStr := flag.String("format", "auto", "input format: auto|json|jsonl")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path, format := *inputPath, validate.InputFormat(*formatStr)
	if path == "" {
		path = "/dev/stdin"
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
	}

	report, err := validate.ValidateFile(ctx, validate.NewProductValidator(), path, format, os.Stdout)
	for _, p := range report.Problems {
		fmt.Fprintf(os.Stderr, "  #%d: %v\n", p.Pos, p.Err)
	}
	if hidden := report.Invalid - len(report.Problems); hidden > 0 {
		fmt.Fprintf(os.Stderr, "  ... and %d more\n", hidden)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation: %v (%s)\n", err, report)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "validation ok (%s)\n", report)
}
