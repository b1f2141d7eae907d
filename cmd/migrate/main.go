package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "STOREFRONT_POSTGRES_DSN"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// run разбирает флаги и выполняет миграцию. Код возврата: 0 — успех,
// 1 — ошибка базы, 2 — неверные аргументы.
func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		direction string
		steps     int
		dsn       string
	)
	fs.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	fs.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	switch direction {
	case "up", "down", "status":
	default:
		_, _ = fmt.Fprintf(stderr, "unsupported direction: %s (use up|down|status)\n", direction)
		return 2
	}
	if steps < 0 {
		_, _ = fmt.Fprintln(stderr, "steps must be non-negative")
		return 2
	}
	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}
	if dsn == "" {
		_, _ = fmt.Fprintf(stderr, "%s (or -dsn) is required\n", envPostgresDSN)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open postgres store: %v\n", err)
		return 1
	}
	defer store.Close()

	switch direction {
	case "up":
		err = store.MigrateUp(ctx, steps)
	case "down":
		if steps == 0 {
			steps = 1
		}
		err = store.MigrateDown(ctx, steps)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "migrate %s failed: %v\n", direction, err)
		return 1
	}

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "migration status failed: %v\n", err)
		return 1
	}
	if direction == "status" {
		_, _ = fmt.Fprintf(stdout, "migration status: version=%d applied=%d\n", version, count)
	} else {
		_, _ = fmt.Fprintf(stdout, "migrate %s ok: version=%d applied=%d\n", direction, version, count)
	}
	return 0
}
