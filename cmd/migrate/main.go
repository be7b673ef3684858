// Command migrate applies the embedded schema migrations.
//
//	migrate up          apply all pending migrations
//	migrate down [N]    roll back N migrations (default 1)
//	migrate version     print the current schema version
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fail("DATABASE_URL is required")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := database.RunMigrations(dsn); err != nil {
			fail(err.Error())
		}
		logger.Info("migrations applied")
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			n, err := strconv.Atoi(os.Args[2])
			if err != nil || n < 1 {
				fail("down expects a positive step count")
			}
			steps = n
		}
		if err := database.RollbackMigrations(dsn, steps); err != nil {
			fail(err.Error())
		}
		logger.Info("migrations rolled back", "steps", steps)
	case "version":
		v, dirty, err := database.MigrationVersion(dsn)
		if err != nil {
			fail(err.Error())
		}
		fmt.Printf("version=%d dirty=%v\n", v, dirty)
	default:
		fail("usage: migrate [up|down [N]|version]")
	}
	logger.Sync()
}

func fail(msg string) {
	logger.Error("migrate failed", "error", msg)
	logger.Sync()
	os.Exit(1)
}
