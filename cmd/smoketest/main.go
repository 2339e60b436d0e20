package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/lifelog/internal/e2etest"
	"github.com/myrjola/lifelog/internal/logging"
	"github.com/myrjola/lifelog/internal/testhelpers"
	"github.com/myrjola/lifelog/internal/workout"
)

// CheckReadOnly exercises the read-only endpoints so that the smoke test leaves the training log untouched.
func CheckReadOnly(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var schedule workout.Schedule
	status, err := client.GetJSON(ctx, "/api/workouts/next", &schedule)
	if err != nil {
		return fmt.Errorf("get next session: %w", err)
	}
	if status != http.StatusOK || schedule.TemplateID == "" {
		return fmt.Errorf("unexpected next session response %d: %+v", status, schedule)
	}

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if doc.Find("li.slot").Length() == 0 {
		return fmt.Errorf("overview of %s lists no exercises", schedule.TemplateID)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = CheckReadOnly(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error checking read-only endpoints", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
