package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// Sanity-checks an existing database file against the expected schema.
//
// Usage: go run ./scripts [db-path]

func main() {
	dbPath := "./data/papertrader.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}
	fmt.Printf("Verifying database at: %s\n", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"trades", "strategy_configs", "account_snapshots"} {
		rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		if rows.Next() {
			fmt.Printf("✓ %s table exists\n", table)
		} else {
			fmt.Printf("❌ %s table MISSING\n", table)
		}
		rows.Close()
	}

	var sqlSchema string
	err = db.QueryRow("SELECT sql FROM sqlite_master WHERE type='table' AND name='trades'").Scan(&sqlSchema)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	for _, column := range []string{"strategy", "reason", "pnl_pct", "duration_sec"} {
		if strings.Contains(sqlSchema, column) {
			fmt.Printf("✓ trades.%s column exists\n", column)
		} else {
			fmt.Printf("❌ trades.%s column MISSING\n", column)
		}
	}

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_trades_account_closed'")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	if rows.Next() {
		fmt.Println("✓ idx_trades_account_closed index exists")
	} else {
		fmt.Println("❌ idx_trades_account_closed index MISSING")
	}
	rows.Close()
}
