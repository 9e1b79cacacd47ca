// Package notify posts reassessment outcomes to a webhook so the coaching
// layer can surface adjustment rationale to the user.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"adaptengine"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// PostAdjustment posts one cycle's outcome. Rationale strings ride along
// verbatim; the engine never sends raw controller state.
func (c *Client) PostAdjustment(ctx context.Context, channel string, adjustment adaptengine.PlanAdjustment) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    summarize(adjustment),
		"blocks": map[string]any{
			"user_id":            adjustment.UserID,
			"cycle":              adjustment.Cycle,
			"committed":          adjustment.Committed,
			"calorie_adjustment": adjustment.Calories,
			"volume_adjustment":  adjustment.Volume,
			"warnings":           adjustment.Warnings,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post adjustment: %s", resp.Status)
	}

	return nil
}

func summarize(adjustment adaptengine.PlanAdjustment) string {
	if !adjustment.Committed {
		return fmt.Sprintf("Cycle %d for %s was not applied: %d safety warning(s). Your current plan stays in place.",
			adjustment.Cycle, adjustment.UserID, len(adjustment.Warnings))
	}
	return fmt.Sprintf("Cycle %d for %s applied: calories %+.0f kcal/day, volume %+.0f weekly sets. %s",
		adjustment.Cycle, adjustment.UserID,
		adjustment.Calories.AdjustmentAmount, adjustment.Volume.AdjustmentAmount,
		adjustment.Calories.Rationale)
}
