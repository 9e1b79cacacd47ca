package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"adaptengine"
	"adaptengine/control"
	"adaptengine/notify"
	"adaptengine/progress"
	"adaptengine/progress/bedrock"
	"adaptengine/reassess"
	"adaptengine/safety"
	"adaptengine/storage"
)

// Params is the scheduler's invocation payload. The external scheduler
// fires per user on the reassessment cadence.
type Params struct {
	UserID string `json:"user_id"`
}

type Results struct {
	Adjustment adaptengine.PlanAdjustment `json:"adjustment"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		if params.UserID == "" {
			return Results{}, fmt.Errorf("user_id is required")
		}

		var engineConfig adaptengine.EngineConfig
		if err := envdecode.Decode(&engineConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}
		if engineConfig.S3Bucket == "" {
			return Results{}, fmt.Errorf("missing S3 config: ENGINE_S3_BUCKET must be set")
		}

		var policy adaptengine.PolicyConfig
		if err := envdecode.Decode(&policy); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var controlConfig adaptengine.ControlConfig
		if err := envdecode.Decode(&controlConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		stateStore := storage.NewS3ControllerStateStore(s3Client, engineConfig.S3Bucket, engineConfig.S3Prefix)
		planStore := storage.NewS3PlanStore(s3Client, engineConfig.S3Bucket, engineConfig.S3Prefix)
		arena := control.NewArena(stateStore, nil)
		source := &s3Source{client: s3Client, bucket: engineConfig.S3Bucket, prefix: engineConfig.S3Prefix}
		slog.Info("SETUP: S3 stores initialized", "bucket", engineConfig.S3Bucket, "prefix", engineConfig.S3Prefix)

		var classifier progress.Classifier
		if engineConfig.LLMSentiment {
			classifier = bedrock.NewClassifier(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{})
			slog.Info("SETUP: LLM sentiment classifier enabled")
		}

		orchestrator := reassess.NewOrchestrator(
			policy,
			controlConfig,
			source,
			planStore,
			arena,
			safety.New(policy),
			classifier,
			adaptengine.NewStdoutCycleLogger(),
			nil,
		)

		adjustment, err := orchestrator.RunCycle(ctx, params.UserID)
		if err != nil {
			slog.Error("RESULT: Cycle failed", "error", err, "user_id", params.UserID)
			return Results{}, err
		}

		if engineConfig.WebhookURL != "" {
			notifier := notify.NewClient(engineConfig.WebhookURL, http.DefaultClient)
			if err := notifier.PostAdjustment(ctx, engineConfig.NotifyChannel, adjustment); err != nil {
				slog.Error("Failed to post adjustment", "error", err)
			}
		}

		return Results{Adjustment: adjustment}, nil
	}

	lambda.Start(fn)
}

// s3Source reads profile and log data from S3:
// <prefix>/users/<id>/profile.json and <prefix>/users/<id>/logs.json.
type s3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

func (s *s3Source) Profile(ctx context.Context, userID string) (adaptengine.UserProfile, error) {
	var profile adaptengine.UserProfile
	if err := s.readJSON(ctx, path.Join(s.prefix, "users", userID, "profile.json"), &profile); err != nil {
		return adaptengine.UserProfile{}, fmt.Errorf("read profile for %s: %w", userID, err)
	}
	return profile, nil
}

func (s *s3Source) Window(ctx context.Context, userID string, since, until time.Time) (reassess.Window, error) {
	var doc struct {
		Meals      []adaptengine.MealLog      `json:"meals"`
		Activities []adaptengine.ActivityLog  `json:"activities"`
		Metrics    []adaptengine.BodyMetric   `json:"body_metrics"`
		Messages   []adaptengine.CoachMessage `json:"messages"`
	}
	if err := s.readJSON(ctx, path.Join(s.prefix, "users", userID, "logs.json"), &doc); err != nil {
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

func (s *s3Source) readJSON(ctx context.Context, key string, out any) error {
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func inWindow(t, since, until time.Time) bool {
	return !t.Before(since) && !t.After(until)
}
