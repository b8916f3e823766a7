package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Applies a ClickHouse migration file and prints the strategy_log row count.
// Usage: go run ./tools/debug_ch [migration.sql]
func main() {
	ctx := context.Background()

	dsn := os.Getenv("CLICKHOUSE_URL")
	if dsn == "" {
		dsn = "clickhouse://default@localhost:9000/pitchside"
	}
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}

	path := "migrations/clickhouse/001_strategy_log.sql"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	migration, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	for _, stmt := range strings.Split(string(migration), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := conn.Exec(ctx, stmt); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println("Migration applied successfully!")

	var count uint64
	if err := conn.QueryRow(ctx, "SELECT count() FROM pitchside.strategy_log").Scan(&count); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Logged strategies: %d\n", count)
}
