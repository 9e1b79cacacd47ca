package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"adaptengine"
	"adaptengine/control"
	"adaptengine/notify"
	"adaptengine/reassess"
	"adaptengine/safety"
	"adaptengine/storage"
)

func main() {
	ctx := context.Background()

	var engineConfig adaptengine.EngineConfig
	if err := envdecode.Decode(&engineConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var policy adaptengine.PolicyConfig
	if err := envdecode.Decode(&policy); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var controlConfig adaptengine.ControlConfig
	if err := envdecode.Decode(&controlConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	userID := argOr(1, "")
	if userID == "" {
		log.Fatal("usage: reassess <user_id>")
	}

	stateStore := storage.NewFileControllerStateStore(engineConfig.DataDir)
	planStore := storage.NewFilePlanStore(engineConfig.DataDir)
	arena := control.NewArena(stateStore, nil)
	source := &fileSource{root: engineConfig.DataDir}
	slog.Info("SETUP: File stores initialized", "data_dir", engineConfig.DataDir)

	logger, cleanup, err := newCycleLogger(userID)
	if err != nil {
		slog.Error("Failed to create cycle logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush cycle log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := adaptengine.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(adaptengine.TracerNameReassess)
	ctx, span := tracer.Start(ctx, adaptengine.TracerNameReassess, trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("control.cadence_days", controlConfig.CadenceDays),
	))
	defer span.End()

	orchestrator := reassess.NewInstrumentedOrchestrator(
		reassess.NewOrchestrator(
			policy,
			controlConfig,
			source,
			planStore,
			arena,
			safety.New(policy),
			nil,
			logger,
			nil,
		),
		tracer,
		meterProvider.Meter(adaptengine.TracerNameReassess),
	)

	adjustment, err := orchestrator.RunCycle(ctx, userID)
	if err != nil {
		slog.Error("RESULT: Cycle failed", "error", err, "user_id", userID)
		return
	}

	slog.Info("RESULT: Cycle finished",
		"user_id", userID,
		"cycle", adjustment.Cycle,
		"committed", adjustment.Committed,
		"calorie_delta", adjustment.Calories.AdjustmentAmount,
		"volume_delta", adjustment.Volume.AdjustmentAmount,
		"warnings", adjustment.Warnings,
	)

	if engineConfig.WebhookURL != "" {
		notifier := notify.NewClient(engineConfig.WebhookURL, http.DefaultClient)
		if err := notifier.PostAdjustment(ctx, engineConfig.NotifyChannel, adjustment); err != nil {
			slog.Error("Failed to post adjustment", "error", err)
		}
	}
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newCycleLogger(userID string) (adaptengine.CycleLogger, func() error, error) {
	logFilePath := adaptengine.NewCycleLogFilePath(userID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := adaptengine.NewFileCycleLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

// fileSource reads profile and log data from the local data directory:
// <root>/users/<id>/profile.json and <root>/users/<id>/logs.json.
type fileSource struct {
	root string
}

func (f *fileSource) Profile(ctx context.Context, userID string) (adaptengine.UserProfile, error) {
	var profile adaptengine.UserProfile
	if err := readJSON(filepath.Join(f.root, "users", userID, "profile.json"), &profile); err != nil {
		return adaptengine.UserProfile{}, fmt.Errorf("read profile for %s: %w", userID, err)
	}
	return profile, nil
}

func (f *fileSource) Window(ctx context.Context, userID string, since, until time.Time) (reassess.Window, error) {
	var doc struct {
		Meals      []adaptengine.MealLog      `json:"meals"`
		Activities []adaptengine.ActivityLog  `json:"activities"`
		Metrics    []adaptengine.BodyMetric   `json:"body_metrics"`
		Messages   []adaptengine.CoachMessage `json:"messages"`
	}
	if err := readJSON(filepath.Join(f.root, "users", userID, "logs.json"), &doc); err != nil {
		return reassess.Window{}, fmt.Errorf("read logs for %s: %w", userID, err)
	}

	win := reassess.Window{}
	for _, m := range doc.Meals {
		if inWindow(m.Date, since, until) {
			win.Meals = append(win.Meals, m)
		}
	}
	for _, a := range doc.Activities {
		if inWindow(a.Date, since, until) {
			win.Activities = append(win.Activities, a)
		}
	}
	for _, b := range doc.Metrics {
		if inWindow(b.Date, since, until) {
			win.Metrics = append(win.Metrics, b)
		}
	}
	for _, msg := range doc.Messages {
		if inWindow(msg.Date, since, until) {
			win.Messages = append(win.Messages, msg)
		}
	}
	return win, nil
}

func inWindow(t, since, until time.Time) bool {
	return !t.Before(since) && !t.After(until)
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
