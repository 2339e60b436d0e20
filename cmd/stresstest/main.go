package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/lifelog/internal/e2etest"
	"github.com/myrjola/lifelog/internal/logging"
	"github.com/myrjola/lifelog/internal/testhelpers"
	"github.com/myrjola/lifelog/internal/workout"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout         = 30 * time.Second
	historyTimeout          = 5 * time.Minute
	maxConcurrentOperations = 20
	numScenarios            = 200
	workoutHistoryWeeks     = 26 // 6 months
	sessionsPerWeek         = 4
	baseWeight              = 20.0
	successRateThreshold    = 95.0
	expectedArgsCount       = 2
	percentageMultiplier    = 100
)

// GenerateWorkoutHistory logs 6 months of sessions following the schedule, declining every bonus offer.
// Weights go up each week so that the progression calculator has history to work on.
func GenerateWorkoutHistory(ctx context.Context, client *e2etest.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	start := time.Now().AddDate(0, -6, 0)
	for week := range workoutHistoryWeeks {
		for day := range sessionsPerWeek {
			var schedule workout.Schedule
			if _, err := client.GetJSON(ctx, "/api/workouts/next", &schedule); err != nil {
				return fmt.Errorf("get next session: %w", err)
			}
			if schedule.IsOptionalOffer {
				if _, err := client.SendJSON(ctx, http.MethodPost, "/api/workouts/next/decline", nil, nil); err != nil {
					return fmt.Errorf("decline offer: %w", err)
				}
				continue
			}

			var plan workout.Plan
			if _, err := client.GetJSON(ctx, "/api/workouts/templates/"+string(schedule.TemplateID)+"/plan",
				&plan); err != nil {
				return fmt.Errorf("get plan: %w", err)
			}
			rec := workout.SessionRecord{ //nolint:exhaustruct // the server fills in the rest.
				Date:       start.AddDate(0, 0, week*7+day*2).Format(time.DateOnly), //nolint:mnd // every other day
				TemplateID: schedule.TemplateID,
			}
			for _, slot := range plan.Slots {
				sets := make([]workout.PerformedSet, slot.Sets)
				for i := range sets {
					sets[i] = workout.PerformedSet{Weight: baseWeight + float64(week), Reps: slot.RepMax}
				}
				rec.Exercises = append(rec.Exercises, workout.ExercisePerformance{
					ExerciseID:    slot.ExerciseID,
					VariantName:   "",
					SetsPerformed: sets,
					Skipped:       false,
				})
			}
			status, err := client.SendJSON(ctx, http.MethodPost, "/api/workouts/sessions", rec, nil)
			if err != nil {
				return fmt.Errorf("post session: %w", err)
			}
			if status != http.StatusCreated {
				return fmt.Errorf("post session: unexpected status %d", status)
			}
		}
		logger.LogAttrs(ctx, slog.LevelDebug, "Generated week of workouts", slog.Int("week", week))
	}
	return nil
}

// ReadScenario is what a user does when opening the app: look at the overview and the targets.
func ReadScenario(ctx context.Context, client *e2etest.Client) error {
	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	exerciseID, ok := doc.Find("li.slot").First().Attr("data-exercise-id")
	if !ok {
		return errors.New("no exercise found on overview page")
	}
	var target workout.Target
	if _, err = client.GetJSON(ctx, "/api/exercises/"+exerciseID+"/target", &target); err != nil {
		return fmt.Errorf("get target: %w", err)
	}
	if target.ExerciseID != workout.ExerciseID(exerciseID) || target.Action == "" {
		return fmt.Errorf("unexpected target for %s: %+v", exerciseID, target)
	}
	return nil
}

// RunLoadTest runs read scenarios concurrently.
func RunLoadTest(ctx context.Context, client *e2etest.Client, logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("scenarios", numScenarios))

	var successCount, failureCount int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for range numScenarios {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			if err := ReadScenario(scenarioCtx, client); err != nil {
				atomic.AddInt64(&failureCount, 1)
				// Log individual failures but don't stop the entire test
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed", slog.Any("error", err))
				return nil
			}
			atomic.AddInt64(&successCount, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount) / float64(numScenarios) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount),
		slog.Int64("failed", failureCount),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	historyStart := time.Now()
	if err := GenerateWorkoutHistory(ctx, client, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to generate workout history", slog.Any("error", err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Workout history generation completed",
		slog.Duration("history_duration", time.Since(historyStart)))

	loadTestStart := time.Now()
	if err := RunLoadTest(ctx, client, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)))
}
