// Package lead validates captured emails and forwards qualified leads to the
// external marketing webhook, best effort.
package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"litmus-quiz-service/internal/domain"
)

// bodyExcerptLimit caps how much of the webhook response is retained for
// diagnostics.
const bodyExcerptLimit = 2048

// Submitter posts leads to a configured webhook. One attempt per submission,
// no retry, no timeout beyond the transport default; every outcome resolves
// to an explicit SubmissionResult so the state machine can always reach the
// result step.
type Submitter struct {
	webhookURL string
	client     *http.Client
}

func NewSubmitter(webhookURL string) *Submitter {
	return &Submitter{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

// NewSubmitterWithClient is test-only for injecting transports.
func NewSubmitterWithClient(webhookURL string, client *http.Client) *Submitter {
	return &Submitter{webhookURL: webhookURL, client: client}
}

// ValidateEmail accepts strings shaped like local@domain.tld: no whitespace,
// exactly one @, and at least one dot after it with non-empty segments.
func (s *Submitter) ValidateEmail(email string) error {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return domain.ErrInvalidEmail
	}
	if strings.Count(email, "@") != 1 {
		return domain.ErrInvalidEmail
	}
	local, host, _ := strings.Cut(email, "@")
	if local == "" {
		return domain.ErrInvalidEmail
	}
	dot := strings.LastIndex(host, ".")
	if dot <= 0 || dot == len(host)-1 {
		return domain.ErrInvalidEmail
	}
	return nil
}

type webhookPayload struct {
	Email     string `json:"email"`
	Answers   string `json:"answers"`
	Score     int    `json:"score"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// Submit makes exactly one POST with the serialized lead. Transport errors
// and non-2xx statuses become a Failed result carrying whatever diagnostics
// the response offered; they are never propagated as errors.
func (s *Submitter) Submit(ctx context.Context, lead domain.Lead) domain.SubmissionResult {
	if s.webhookURL == "" {
		return failed(0, "", "webhook url not configured")
	}

	payload := webhookPayload{
		Email:     lead.Email,
		Answers:   summarizeAnswers(lead.Answers),
		Score:     lead.Score,
		Result:    lead.TierLabel,
		Timestamp: lead.CapturedAt.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failed(0, "", fmt.Sprintf("marshal payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return failed(0, "", fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return failed(0, "", err.Error())
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(resp.StatusCode, string(excerpt), fmt.Sprintf("webhook returned %s", resp.Status))
	}
	return domain.SubmissionResult{
		Status:     domain.SubmissionSucceeded,
		HTTPStatus: resp.StatusCode,
		Body:       string(excerpt),
	}
}

// summarizeAnswers renders the catalog-ordered answers as a single
// human-readable line for the marketing system.
func summarizeAnswers(records []domain.AnswerRecord) string {
	parts := make([]string, 0, len(records))
	for _, record := range records {
		parts = append(parts, fmt.Sprintf("%s: %d", record.Prompt, record.Value))
	}
	return strings.Join(parts, " | ")
}

func failed(status int, body, errMsg string) domain.SubmissionResult {
	return domain.SubmissionResult{
		Status:     domain.SubmissionFailed,
		HTTPStatus: status,
		Body:       body,
		Err:        errMsg,
	}
}
