package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/riskibarqy/match-ledger/internal/usecase"
)

type sessionSyncer interface {
	AccountID() string
	Sync(ctx context.Context) (usecase.SyncReport, error)
}

// newSyncScheduler runs a sync pass every interval while an account is signed
// in. A pass still running when the next tick fires is not doubled up.
func newSyncScheduler(interval, timeout time.Duration, sessions sessionSyncer, logger *logging.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runScheduledSync(sessions, timeout, logger)
		}),
		gocron.WithName("periodic-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule periodic sync: %w", err)
	}
	return sched, nil
}

func runScheduledSync(sessions sessionSyncer, timeout time.Duration, logger *logging.Logger) {
	if sessions.AccountID() == "" {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWith(context.Background(), "trigger", "schedule"), timeout)
	defer cancel()

	report, err := sessions.Sync(ctx)
	if err != nil {
		logger.WarnContext(ctx, "periodic sync failed", "error", err)
		return
	}
	if report.Skipped {
		logger.DebugContext(ctx, "periodic sync skipped, another pass is running")
		return
	}
	logger.InfoContext(ctx, "periodic sync finished",
		"account_id", report.AccountID,
		"matches_uploaded", report.MatchesUploaded,
		"matches_downloaded", report.MatchesDownloaded,
		"failed_phase", report.FailedPhase,
	)
}
