package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"reelcraft/internal/adapter/repo"
	"reelcraft/internal/credits"
	"reelcraft/internal/domain"
)

// grantcredits applies a purchased credit package to a user, outside the
// payment webhook path. Used for support cases and manual sales.
func main() {
	var (
		idFlag     string
		planFlag   string
		amountFlag int
		refFlag    string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to credit (UUID)")
	flag.StringVar(&planFlag, "plan", "", "credit package to apply (free, starter, pro, agency)")
	flag.IntVar(&amountFlag, "amount", 0, "explicit credit amount (overrides -plan)")
	flag.StringVar(&refFlag, "ref", "manual-grant", "payment reference recorded in the audit trail")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	if userID == "" {
		exitWithError(errors.New("-id is required"))
	}

	amount := amountFlag
	if amount <= 0 {
		plan, ok := domain.PlanByID(strings.ToLower(strings.TrimSpace(planFlag)))
		if !ok {
			exitWithError(fmt.Errorf("unknown plan %q and no -amount given", planFlag))
		}
		amount = plan.Credits
	}

	_ = godotenv.Load()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ledger := credits.NewLedger(repo.NewCreditStore(pool), logger)

	if err := ledger.Purchase(ctx, userID, amount, strings.TrimSpace(refFlag)); err != nil {
		exitWithError(fmt.Errorf("failed to grant credits: %w", err))
	}

	balance, err := ledger.Balance(ctx, userID)
	if err != nil {
		exitWithError(fmt.Errorf("credits granted but balance lookup failed: %w", err))
	}
	fmt.Printf("Granted %d credits to %s (balance now %d)\n", amount, userID, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
