// Package gateway содержит клиентов внешних сервисов: GitHub REST API и
// сервиса ревью (LLM-агента).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pr-grading-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// GitHubClient общается с GitHub REST API от имени сервисного токена.
type GitHubClient struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *logrus.Logger
}

// NewGitHubClient создает новый экземпляр GitHubClient.
// baseURL переопределяется в тестах; в остальных случаях это api.github.com.
func NewGitHubClient(baseURL, token string, logger *logrus.Logger) *GitHubClient {
	return &GitHubClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

// githubPullRequest описывает ответ GitHub на листинг пул-реквестов.
type githubPullRequest struct {
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	State    string  `json:"state"`
	Draft    bool    `json:"draft"`
	MergedAt *string `json:"merged_at"`
	HTMLURL  string  `json:"html_url"`
}

// parseRepoPath выделяет owner/repo из URL репозитория курса.
func parseRepoPath(githubURL string) (string, string, error) {
	if githubURL == "" {
		return "", "", domain.ErrMissingRepoURL
	}
	trimmed := strings.TrimPrefix(githubURL, "http://")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	trimmed = strings.TrimSuffix(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid github url format: %s", githubURL)
	}
	return parts[0], parts[1], nil
}

// FetchPullRequests возвращает все PR репозитория курса, включая закрытые
// и черновики.
func (c *GitHubClient) FetchPullRequests(ctx context.Context, githubURL string) ([]*domain.PullRequest, error) {
	owner, repo, err := parseRepoPath(githubURL)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls?state=all&per_page=100", c.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: github api %s: %s", domain.ErrRemoteUnavailable, resp.Status, string(body))
	}

	var fetched []githubPullRequest
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return nil, fmt.Errorf("failed to decode github response: %w", err)
	}

	prs := make([]*domain.PullRequest, 0, len(fetched))
	for _, gpr := range fetched {
		prs = append(prs, &domain.PullRequest{
			Number:      gpr.Number,
			Title:       gpr.Title,
			Description: gpr.Body,
			Status:      lifecycleStatus(gpr),
			GradeStatus: domain.GradeStatusNotGraded,
		})
	}

	c.logger.WithFields(logrus.Fields{"owner": owner, "repo": repo, "count": len(prs)}).
		Info("Fetched pull requests from GitHub")
	return prs, nil
}

// lifecycleStatus переводит состояние GitHub в статус жизненного цикла PR.
func lifecycleStatus(gpr githubPullRequest) string {
	switch {
	case gpr.MergedAt != nil:
		return "merged"
	case gpr.Draft:
		return "draft"
	default:
		return gpr.State // open | closed
	}
}

// reviewResponse описывает ответ GitHub на публикацию ревью.
type reviewResponse struct {
	HTMLURL string `json:"html_url"`
}

// PostReview публикует ревью на PR. HTTP 422 означает, что ревью уже
// опубликовано либо позиции комментариев не ложатся на дифф; обе ситуации
// требуют действий пользователя, а не повтора.
func (c *GitHubClient) PostReview(ctx context.Context, githubURL string, prNumber int, review domain.ReviewSubmission) (string, error) {
	owner, repo, err := parseRepoPath(githubURL)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(review)
	if err != nil {
		return "", fmt.Errorf("failed to marshal review: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, prNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.WithFields(logrus.Fields{"pr_number": prNumber, "body": string(respBody)}).
			Warn("GitHub rejected the review")
		return "", fmt.Errorf("%w: %s", domain.ErrPublishRejected, string(respBody))
	default:
		return "", fmt.Errorf("%w: github api %s: %s", domain.ErrRemoteUnavailable, resp.Status, string(respBody))
	}

	var posted reviewResponse
	if err := json.Unmarshal(respBody, &posted); err != nil {
		// ревью уже принято GitHub; отсутствие ссылки не делает публикацию неудачной
		c.logger.WithError(err).Warn("Failed to decode review response")
		return "", nil
	}

	c.logger.WithFields(logrus.Fields{"pr_number": prNumber, "review_url": posted.HTMLURL}).
		Info("Review posted to GitHub")
	return posted.HTMLURL, nil
}

func (c *GitHubClient) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "pr-grading-service")
}
