// Command report prints the certification progress of a contest and exits
// non-zero when the contest is not ready for Board certification.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/JaimeStill/certify/internal/config"
	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/pkg/database"
	"github.com/JaimeStill/certify/pkg/lifecycle"
)

func main() {
	var (
		contest = flag.String("contest", "", "Contest ID")
		timeout = flag.Duration("timeout", 30*time.Second, "Overall report timeout")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load .env: %v", err)
	}

	contestID, err := uuid.Parse(*contest)
	if err != nil {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.New(dbCfg, logger)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	lc := lifecycle.New()
	if err := db.Start(lc); err != nil {
		log.Fatalf("start database: %v", err)
	}
	if err := lc.WaitForStartup(); err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer lc.Shutdown(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := progress.New(db.Connection(), logger, 4).Contest(ctx, contestID)
	if err != nil {
		log.Fatalf("compute progress: %v", err)
	}

	render(os.Stdout, result)

	if !result.ReadyForBoard && !result.BoardCertified {
		color.Red("\ncontest is not ready for board certification")
		lc.Shutdown(5 * time.Second)
		os.Exit(1)
	}
}
