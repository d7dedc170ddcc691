// cmd/migrate applies or rolls back the database schema.
//
//	migrate up
//	migrate down
package main

import (
	"fmt"
	"os"

	"github.com/Shivanand-hulikatti/school-portal/internal/config"
	"github.com/Shivanand-hulikatti/school-portal/internal/database"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
)

func main() {
	log := logger.NewStd(os.Stdout)

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", err, nil)
		os.Exit(1)
	}

	if err := database.Migrate(cfg.DSN(), direction); err != nil {
		log.Error("migrate", err, logger.Fields{"direction": direction})
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down]")
		os.Exit(1)
	}
	log.Info("migrations applied", logger.Fields{"direction": direction})
}
