// Command graw reads complete Reddit listings and comment threads.
//
// Credentials and client settings come from a YAML file passed with --config,
// or from REDDIT_* environment variables. A .env file in the working
// directory is loaded first.
//
// Usage:
//
//	graw comments golang
//	graw thread abc123 --format html > thread.html
//	graw watch golang --kind submissions --cron "*/5 * * * *" --state golang.last
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
