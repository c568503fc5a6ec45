// backoffice is the one-shot operations CLI: trial balance, invoice and RMA
// listings, stock levels, AR aging, and benchmark rate imports.
//
// Usage: backoffice <command> [args]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"logistics-backoffice/internal/adapters/cli"
	"logistics-backoffice/internal/app"
	"logistics-backoffice/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: backoffice <command> [args]")
		fmt.Fprintln(os.Stderr, "Commands: bal, invoices [status], rmas [status], stock, aging, import-rates <file>")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(pool)
	cli.Run(ctx, svc, os.Args[1:])
}
