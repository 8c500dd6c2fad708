package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"aerocrew.com/aerocrew/attendance"
	"aerocrew.com/aerocrew/infrastructure/devops"
	"aerocrew.com/aerocrew/lambdas/common"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
)

// SyncEvent is the scheduler payload. All fields are optional; a bare
// cron invocation syncs the default window for the configured env.
type SyncEvent struct {
	Since string `json:"since"` // yyyy-MM-dd, overrides the default window
	Env   string `json:"env"`
}

const defaultSinceDays = 30

func resolveSince(event SyncEvent) (time.Time, error) {
	if event.Since != "" {
		t, err := time.Parse("2006-01-02", event.Since)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid since date %q: %w", event.Since, err)
		}
		return t, nil
	}

	days := defaultSinceDays
	if v, err := strconv.Atoi(os.Getenv("SYNC_SINCE_DAYS")); err == nil && v > 0 {
		days = v
	}
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days), nil
}

// HandleRequest is the scheduler boundary: nothing escapes it. Engine
// failures become a best-effort operator notification plus a failed
// stats payload; notification failures are logged and swallowed.
func HandleRequest(ctx context.Context, event SyncEvent) (SyncStats, error) {
	invocation := uuid.NewString()[:8]
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	fmt.Printf("[INFO] (%s) Attendance sync invoked, environment=%s\n", invocation, environment)

	if environment != "production" {
		fmt.Printf("[INFO] (%s) Environment is not production, skipping sync\n", invocation)
		return SyncStats{Skipped: true}, nil
	}

	env := strings.ToLower(event.Env)
	if env == "" {
		env = "prod"
	}

	since, err := resolveSince(event)
	if err != nil {
		fmt.Printf("[ERROR] (%s) %v\n", invocation, err)
		return SyncStats{Status: "failed", Error: err.Error()}, nil
	}

	start := time.Now()

	dbs, err := common.LoadDatabases(ctx)
	if err != nil {
		return failWith(ctx, invocation, env, since, start, fmt.Errorf("failed to load databases from SSM: %w", err)), nil
	}
	entry, ok := dbs[env]
	if !ok {
		return failWith(ctx, invocation, env, since, start, fmt.Errorf("environment '%s' not found in parameter store", env)), nil
	}

	bt, err := devops.FindBioTimeEntry(ctx, env)
	if err != nil {
		return failWith(ctx, invocation, env, since, start, err), nil
	}

	run, err := SyncAttendance(ctx, entry.GetDSN("aerocrew"), bt, since)
	elapsed := time.Since(start)

	if errors.Is(err, attendance.ErrRunInProgress) {
		fmt.Printf("[INFO] (%s) Another sync run is in process, skipping (elapsed %s)\n", invocation, elapsed.Round(time.Millisecond))
		return SyncStats{Skipped: true}, nil
	}

	stats := SyncStats{}
	if run != nil {
		stats.RunID = run.ID
		stats.Status = run.Status
		stats.PageCount = run.PageCount
		stats.ItemCount = run.ItemCount
	}

	if err != nil {
		stats.Error = err.Error()
		fmt.Printf("[ERROR] (%s) Sync failed after %s: %v\n", invocation, elapsed.Round(time.Millisecond), err)
		notify(ctx, invocation, env, since, elapsed, err)
		return stats, nil
	}

	fmt.Printf("[INFO] (%s) Sync finished in %s: %d pages, %d punches\n",
		invocation, elapsed.Round(time.Millisecond), stats.PageCount, stats.ItemCount)
	return stats, nil
}

func failWith(ctx context.Context, invocation, env string, since time.Time, start time.Time, err error) SyncStats {
	elapsed := time.Since(start)
	fmt.Printf("[ERROR] (%s) Sync failed after %s: %v\n", invocation, elapsed.Round(time.Millisecond), err)
	notify(ctx, invocation, env, since, elapsed, err)
	return SyncStats{Status: "failed", Error: err.Error()}
}

func notify(ctx context.Context, invocation, env string, since time.Time, elapsed time.Duration, err error) {
	notifier := newNotifier()
	if len(notifier) == 0 {
		fmt.Printf("[WARN] (%s) No operator notification channel configured\n", invocation)
		return
	}

	subject := fmt.Sprintf("[aerocrew] attendance sync failed (%s)", env)
	message := buildFailureMessage(env, since, elapsed, err)

	var notifyErr *attendance.NotifyError
	if nerr := notifier.NotifyFailure(ctx, subject, message); errors.As(nerr, &notifyErr) {
		// Alerting problems never escalate past this point.
		fmt.Printf("[WARN] (%s) %v\n", invocation, notifyErr)
	}
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
		return
	}

	// Local mode: env-provided DSN and BioTime server, no SSM.
	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(localhost:3306)/aerocrew?parseTime=true"
	}
	bt := &devops.BioTimeEntry{
		Name:     "localhost",
		URL:      os.Getenv("BIOTIME_URL"),
		Token:    os.Getenv("BIOTIME_TOKEN"),
		Timezone: 10,
	}
	since := time.Now().UTC().AddDate(0, 0, -defaultSinceDays)
	if v := os.Getenv("SYNC_SINCE"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			fmt.Printf("[ERROR] invalid SYNC_SINCE %q: %v\n", v, err)
			os.Exit(1)
		}
		since = t
	}

	run, err := SyncAttendance(context.Background(), dsn, bt, since)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	resJson, _ := json.MarshalIndent(run, "", "  ")
	fmt.Printf("[SUCCESS] Run:\n%s\n", string(resJson))
}
