package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"studio/internal/db"
	"studio/internal/infra"
)

func main() {
	var (
		dsnFlag string
		list    bool
	)
	flag.StringVar(&dsnFlag, "dsn", "", "postgres connection string (fallbacks to DATABASE_URL)")
	flag.BoolVar(&list, "list", false, "print the embedded migrations and exit")
	flag.Parse()

	_ = godotenv.Load()
	logger := infra.NewLogger("cli", "").With().Str("cmd", "migrate").Logger()

	if list {
		migrations, err := db.Migrations()
		if err != nil {
			exitWithError(err)
		}
		for _, m := range migrations {
			fmt.Println(m.Version)
		}
		return
	}

	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		exitWithError(fmt.Errorf("DATABASE_URL is required via -dsn or environment"))
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	applied, err := db.Apply(ctx, conn, logger)
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("%d migration(s) applied\n", applied)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
