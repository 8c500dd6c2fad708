package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"aerocrew.com/aerocrew/attendance"
	v1 "aerocrew.com/aerocrew/biotime/v1"
	"aerocrew.com/aerocrew/core"
	"aerocrew.com/aerocrew/core/models"
	"aerocrew.com/aerocrew/infrastructure/communication"
	"aerocrew.com/aerocrew/infrastructure/devops"
)

// SyncStats is the handler's result payload.
type SyncStats struct {
	RunID     uint   `json:"runId"`
	Status    string `json:"status"`
	PageCount int    `json:"pageCount"`
	ItemCount int    `json:"itemCount"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SyncAttendance wires the engine for one scheduled invocation and runs
// it to completion.
func SyncAttendance(ctx context.Context, dsn string, bt *devops.BioTimeEntry, since time.Time) (*models.SyncRun, error) {
	dm, err := core.New(dsn, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	dm.LogLevel = core.LogLevelError
	defer dm.Close()

	db, err := dm.GetDB()
	if err != nil {
		return nil, err
	}

	employees, err := core.LoadEmployeeCodeMap(db)
	if err != nil {
		return nil, err
	}

	client := v1.NewBioTimeClient(bt.URL, bt.Token)
	if bt.Token == "" {
		// No long-lived token in parameter store; bootstrap one with
		// the operator credentials.
		if err := client.Authenticate(ctx, os.Getenv("BIOTIME_USERNAME"), os.Getenv("BIOTIME_PASSWORD")); err != nil {
			return nil, fmt.Errorf("failed to authenticate with terminal server: %w", err)
		}
	}

	engine := attendance.NewEngine(attendance.NewLedger(db), client.Transactions)
	engine.Employees = employees
	engine.Location = time.FixedZone(fmt.Sprintf("UTC%+d", bt.Timezone), bt.Timezone*3600)
	engine.RunDeadline = 10 * time.Minute

	return engine.RunOnce(ctx, since)
}

// newNotifier assembles the operator channels from the environment.
// Missing configuration just narrows the fan-out.
func newNotifier() attendance.MultiNotifier {
	var notifier attendance.MultiNotifier

	from := os.Getenv("OPERATOR_EMAIL_FROM")
	to := os.Getenv("OPERATOR_EMAIL_TO")
	if from != "" && to != "" {
		notifier = append(notifier, &attendance.EmailNotifier{
			From: from,
			To:   strings.Split(to, ","),
		})
	}

	if os.Getenv("SLACK_BOT_TOKEN") != "" {
		notifier = append(notifier, &attendance.SlackNotifier{
			Client: communication.ConnectSlack(),
		})
	}

	return notifier
}

func buildFailureMessage(env string, since time.Time, elapsed time.Duration, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attendance sync failed in environment %s.\n\n", env)
	fmt.Fprintf(&b, "Requested since: %s\n", since.Format("2006-01-02"))
	fmt.Fprintf(&b, "Elapsed: %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Error: %v\n", err)
	b.WriteString("\nThe next scheduled invocation will resume from the last synced page.\n")
	return b.String()
}
