package domain

import "time"

// ReviewComment описывает замечание ревьювера к конкретной строке диффа.
// Position указывает строку диффа и назначается ревьювером; пользователь
// может править только path и body.
type ReviewComment struct {
	Path     string `json:"path"`
	Position int    `json:"position"`
	Body     string `json:"body"`
}

// ReviewResult хранит каноническую форму результата ревью.
// Любой полученный извне результат проходит через нормализатор и дальше
// существует только в этом виде.
type ReviewResult struct {
	Summary     string          `json:"summary"`
	Comments    []ReviewComment `json:"comments"`
	ReviewURL   string          `json:"review_url,omitempty"`
	Status      string          `json:"status,omitempty"`
	ProcessedAt time.Time       `json:"processed_at"`
	PostedAt    *time.Time      `json:"posted_at,omitempty"`
}

// HasContent сообщает, есть ли в результате что публиковать.
func (r *ReviewResult) HasContent() bool {
	return r != nil && (r.Summary != "" || len(r.Comments) > 0)
}

// Clone возвращает глубокую копию результата.
func (r *ReviewResult) Clone() *ReviewResult {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Comments = append([]ReviewComment(nil), r.Comments...)
	if r.PostedAt != nil {
		t := *r.PostedAt
		cp.PostedAt = &t
	}
	return &cp
}

// ResultEdit описывает ручную правку результата. Позиции комментариев в правке
// игнорируются: они берутся из сохранённого результата.
type ResultEdit struct {
	Summary  string
	Comments []ResultCommentEdit
}

// ResultCommentEdit описывает правку одного комментария.
type ResultCommentEdit struct {
	Path string
	Body string
}
