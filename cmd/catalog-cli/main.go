package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gunvolt24/gemstock/config"
	cachemem "github.com/Gunvolt24/gemstock/internal/cache/memory"
	"github.com/Gunvolt24/gemstock/internal/domain"
	gwrest "github.com/Gunvolt24/gemstock/internal/gateway/rest"
	"github.com/Gunvolt24/gemstock/internal/usecase"
	"github.com/Gunvolt24/gemstock/pkg/logger"
	"github.com/joho/godotenv"
)

// Интерактивный просмотр каталога через один координатор:
// команды читаются построчно из stdin, состояние печатается по мере загрузки.
func main() {
	search := flag.String("search", "", "initial name search")
	category := flag.String("category", "", "initial category filter")
	flag.Parse()

	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg, cleanup, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	gateway, err := gwrest.NewClient(gwrest.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		Token:     cfg.Gateway.Token,
		Timeout:   cfg.Gateway.Timeout,
		RateLimit: cfg.Gateway.RateLimit,
		Burst:     cfg.Gateway.Burst,
		Retries:   cfg.Gateway.Retries,
		Backoff:   cfg.Gateway.Backoff,
	}, nil, logg.Named("gateway"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}

	store := cachemem.NewProductStore()
	catalog := usecase.NewProductCatalog(gateway, store, logg.Named("catalog"),
		usecase.WithCatalogFetchTimeout(cfg.Catalog.FetchTimeout))
	defer catalog.Wait()

	coord := usecase.NewProductCoordinator(catalog, store, logg.Named("coordinator"),
		usecase.WithDebounce(cfg.Coordinator.Debounce),
		usecase.WithFetchTimeout(cfg.Coordinator.FetchTimeout),
		usecase.WithInitialPagination(domainPage(cfg.Coordinator.PageLimit)),
		usecase.WithInitialFilters(domain.FilterParams{Search: *search, Category: *category}),
	)
	defer coord.Close()

	sh := newShell(coord, os.Stdout)
	states, unsubscribe := coord.Subscribe()
	defer unsubscribe()
	go sh.watch(states)

	coord.Refresh()
	fmt.Fprintln(os.Stdout, "type 'help' for commands")

	lines := make(chan string)
	go readLines(os.Stdin, lines)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || !sh.exec(ctx, line) {
				return
			}
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
}
