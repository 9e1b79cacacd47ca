package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"adaptengine"
	"adaptengine/notify"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	resp   *http.Response
	err    error
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return m.resp, m.err
}

func sampleAdjustment() adaptengine.PlanAdjustment {
	return adaptengine.PlanAdjustment{
		UserID:    "u-1",
		Cycle:     2,
		Committed: true,
		Calories: adaptengine.PIDAdjustment{
			Current:          2400,
			Recommended:      2262,
			AdjustmentAmount: -138,
			Rationale:        "Observed rate -0.25 kg/week vs target -0.50; adjusting by -138 kcal/day to close the gap.",
		},
		Volume: adaptengine.PIDAdjustment{
			Current:          48,
			Recommended:      50,
			AdjustmentAmount: 2,
		},
	}
}

func TestNewClient(t *testing.T) {
	client := notify.NewClient("http://example.com/webhook", &mockDoer{})
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr error
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
			},
			wantErr: nil,
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("bad request"))}, nil
			},
			wantErr: fmt.Errorf("failed to post adjustment: 400 Bad Request"),
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: fmt.Errorf("network error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := notify.NewClient("http://example.com/webhook", &mockDoer{doFunc: tt.doFunc})
			err := client.PostAdjustment(context.Background(), "#coaching", sampleAdjustment())
			should.Equal(t, tt.wantErr, err)
		})
	}
}

func TestPostAdjustmentPayload(t *testing.T) {
	var captured map[string]any
	doFunc := func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		must.NoError(t, err)
		must.NoError(t, json.Unmarshal(body, &captured))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}

	client := notify.NewClient("http://example.com/webhook", &mockDoer{doFunc: doFunc})
	must.NoError(t, client.PostAdjustment(context.Background(), "#coaching", sampleAdjustment()))

	should.Equal(t, "#coaching", captured["channel"])
	should.Contains(t, captured["text"], "applied")
	should.Contains(t, captured["text"], "-138 kcal/day")

	blocks, ok := captured["blocks"].(map[string]any)
	must.True(t, ok)
	should.Equal(t, "u-1", blocks["user_id"])
	should.Equal(t, true, blocks["committed"])
}

func TestPostAdjustmentRejectedSummary(t *testing.T) {
	var captured map[string]any
	doFunc := func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &captured)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}

	adjustment := sampleAdjustment()
	adjustment.Committed = false
	adjustment.Warnings = []string{"proposed deficit 31.5% exceeds the 25% adjustment ceiling"}

	client := notify.NewClient("http://example.com/webhook", &mockDoer{doFunc: doFunc})
	must.NoError(t, client.PostAdjustment(context.Background(), "#coaching", adjustment))

	should.Contains(t, captured["text"], "was not applied")
	should.Contains(t, captured["text"], "current plan stays in place")
}
