package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pr-grading-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// ReviewTimeout задает верхнюю границу ожидания ответа сервиса ревью.
// Ревью батча PR занимает минуты; раньше таймаута вызов не считается неудачным.
const ReviewTimeout = 5 * time.Minute

// AgentClient реализует клиента внешнего сервиса ревью (LLM-агента).
type AgentClient struct {
	endpoint string
	httpc    *http.Client
	logger   *logrus.Logger
}

// NewAgentClient создает новый экземпляр AgentClient.
func NewAgentClient(endpoint string, logger *logrus.Logger) *AgentClient {
	return &AgentClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpc:    &http.Client{Timeout: ReviewTimeout},
		logger:   logger,
	}
}

// agentRequest описывает тело запроса к агенту. pr_ids передаются строкой
// через запятую, так исторически выглядит контракт сервиса ревью.
type agentRequest struct {
	CourseID     int    `json:"course_id"`
	AssignmentID int    `json:"assignment_id,omitempty"`
	ReviewerID   int    `json:"reviewer_id,omitempty"`
	PrIDs        string `json:"pr_ids"`
}

type agentResponse struct {
	Results []domain.ReviewerOutcome `json:"results"`
}

// Review отправляет батч PR на ревью.
func (c *AgentClient) Review(ctx context.Context, req domain.ReviewerRequest) ([]domain.ReviewerOutcome, error) {
	return c.call(ctx, "/api/review", req)
}

// AutoReview отправляет батч PR на фоновое ревью.
func (c *AgentClient) AutoReview(ctx context.Context, req domain.ReviewerRequest) ([]domain.ReviewerOutcome, error) {
	return c.call(ctx, "/api/review-auto", req)
}

func (c *AgentClient) call(ctx context.Context, path string, req domain.ReviewerRequest) ([]domain.ReviewerOutcome, error) {
	body, err := json.Marshal(agentRequest{
		CourseID:     req.CourseID,
		AssignmentID: req.AssignmentID,
		ReviewerID:   req.ReviewerID,
		PrIDs:        joinIDs(req.PrIDs),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{"path": path, "course_id": req.CourseID, "pr_count": len(req.PrIDs)}).
		Info("Dispatching pull requests to reviewer")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: reviewer agent %s: %s", domain.ErrRemoteUnavailable, resp.Status, string(respBody))
	}

	var parsed agentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}
	return parsed.Results, nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
