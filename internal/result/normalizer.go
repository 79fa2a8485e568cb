// Package result приводит разнородные результаты ревью к канонической форме.
//
// Сервисы ревью и ручные правки присылают результат в разном виде: валидный
// JSON, псевдо-JSON с одинарными кавычками, просто текст. Единственной точкой,
// где форма выравнивается, служит функция Normalize; дальше по системе ходит
// только domain.ReviewResult.
package result

import (
	"encoding/json"
	"strings"
	"time"

	"pr-grading-service/internal/domain"
)

// payload хранит промежуточную форму до канонизации: допускает оба варианта
// наименования полей, встречающихся в ответах ревьюверов.
type payload struct {
	Summary      string                 `json:"summary"`
	Message      string                 `json:"message"`
	ReviewURL    string                 `json:"review_url"`
	ReviewURLAlt string                 `json:"reviewURL"`
	Status       string                 `json:"status"`
	ProcessedAt  *time.Time             `json:"processed_at"`
	PostedAt     *time.Time             `json:"posted_at"`
	Comments     []domain.ReviewComment `json:"comments"`
}

// Normalize приводит произвольный результат ревью к канонической форме.
// Функция тотальна: на любом входе возвращает результат либо nil («результата
// нет»), никогда не паникует и не возвращает ошибку. Повторная нормализация
// канонического результата его не меняет.
func Normalize(raw any) *domain.ReviewResult {
	switch v := raw.(type) {
	case nil:
		return nil
	case *domain.ReviewResult:
		if v == nil {
			return nil
		}
		return canonical(payload{
			Summary:     v.Summary,
			ReviewURL:   v.ReviewURL,
			Status:      v.Status,
			ProcessedAt: nonZero(v.ProcessedAt),
			PostedAt:    v.PostedAt,
			Comments:    append([]domain.ReviewComment(nil), v.Comments...),
		})
	case domain.ReviewResult:
		return Normalize(&v)
	case string:
		return normalizeString(v)
	case []byte:
		return normalizeString(string(v))
	case json.RawMessage:
		return normalizeString(string(v))
	default:
		// map[string]any и прочие структуры выравниваем через JSON
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return normalizeString(string(b))
	}
}

func normalizeString(raw string) *domain.ReviewResult {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil
	}

	// Сервисы ревью часто кладут результат строковым полем: снимаем слой
	// JSON-строки и нормализуем содержимое.
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
			return normalizeString(inner)
		}
	}

	var p payload
	if err := json.Unmarshal([]byte(trimmed), &p); err == nil {
		return canonical(p)
	}

	// Ремонт псевдо-JSON: одинарные кавычки меняем на двойные и пробуем снова.
	if strings.HasPrefix(trimmed, "{'") {
		fixed := strings.ReplaceAll(trimmed, "'", `"`)
		var q payload
		if err := json.Unmarshal([]byte(fixed), &q); err == nil {
			return canonical(q)
		}
	}

	// Совсем не JSON: сохраняем текст как summary, чтобы не потерять отзыв.
	return canonical(payload{Summary: raw})
}

func canonical(p payload) *domain.ReviewResult {
	summary := p.Summary
	if summary == "" {
		summary = p.Message
	}
	reviewURL := p.ReviewURL
	if reviewURL == "" {
		reviewURL = p.ReviewURLAlt
	}
	if summary == "" && len(p.Comments) == 0 && p.Status == "" && reviewURL == "" {
		return nil
	}

	processedAt := time.Now().UTC()
	if p.ProcessedAt != nil {
		processedAt = *p.ProcessedAt
	}

	comments := p.Comments
	if comments == nil {
		comments = []domain.ReviewComment{}
	}

	return &domain.ReviewResult{
		Summary:     summary,
		Comments:    comments,
		ReviewURL:   reviewURL,
		Status:      p.Status,
		ProcessedAt: processedAt,
		PostedAt:    p.PostedAt,
	}
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
