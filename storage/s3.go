package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"adaptengine"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3ControllerStateStore implements ControllerStateStore backed by S3.

type S3ControllerStateStore struct {
	bucket string
	prefix string
	s3     *s3.Client
}

func NewS3ControllerStateStore(s3Client *s3.Client, bucket, prefix string) *S3ControllerStateStore {
	return &S3ControllerStateStore{
		bucket: bucket,
		prefix: prefix,
		s3:     s3Client,
	}
}

func (s *S3ControllerStateStore) key(userID, kind string) string {
	return fmt.Sprintf("%scontrollers/%s/%s.json", s.prefix, userID, kind)
}

func (s *S3ControllerStateStore) Load(ctx context.Context, userID, kind string) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID, kind)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get controller state from S3: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *S3ControllerStateStore) Save(ctx context.Context, userID, kind string, data []byte) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID, kind)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put controller state to S3: %w", err)
	}
	return nil
}

// S3PlanStore implements PlanStore backed by S3, one object per user
// holding all plan versions.

type S3PlanStore struct {
	bucket string
	prefix string
	s3     *s3.Client
}

func NewS3PlanStore(s3Client *s3.Client, bucket, prefix string) *S3PlanStore {
	return &S3PlanStore{
		bucket: bucket,
		prefix: prefix,
		s3:     s3Client,
	}
}

func (s *S3PlanStore) key(userID string) string {
	return fmt.Sprintf("%splans/%s.json", s.prefix, userID)
}

func (s *S3PlanStore) load(ctx context.Context, userID string) ([]adaptengine.PlanVersion, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan versions from S3: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var versions []adaptengine.PlanVersion
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("decoding plan versions for %s: %w", userID, err)
	}
	return versions, nil
}

func (s *S3PlanStore) Active(ctx context.Context, userID string) (*adaptengine.PlanVersion, error) {
	versions, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, plan := range versions {
		if plan.Active {
			p := plan
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *S3PlanStore) Save(ctx context.Context, plan *adaptengine.PlanVersion) error {
	versions, err := s.load(ctx, plan.UserID)
	if err != nil {
		return err
	}
	for i := range versions {
		versions[i].Active = false
	}
	versions = append(versions, *plan)

	data, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("encoding plan versions for %s: %w", plan.UserID, err)
	}
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(plan.UserID)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put plan versions to S3: %w", err)
	}
	return nil
}

func (s *S3PlanStore) History(ctx context.Context, userID string) ([]adaptengine.PlanVersion, error) {
	versions, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}
