// Package store содержит покурсовый кэш пул-реквестов.
package store

import (
	"sort"
	"sync"

	"pr-grading-service/internal/domain"
)

// Store реализует потокобезопасный кэш пул-реквестов, сгруппированный по
// курсам. Это единственный разделяемый изменяемый ресурс оркестрации:
// синхронизация и диспетчер ревью пишут сюда конкурентно, поэтому все
// обновления выполняются как атомарные слияния полей конкретной записи,
// а не замена записи целиком.
type Store struct {
	mu      sync.RWMutex
	courses map[int]map[int]*domain.PullRequest
}

func New() *Store {
	return &Store{
		courses: make(map[int]map[int]*domain.PullRequest),
	}
}

// Replace атомарно заменяет набор PR курса. Вызывается после синхронизации
// и первичной загрузки; пустой набор тоже помечает курс загруженным.
func (s *Store) Replace(courseID int, prs []*domain.PullRequest) {
	fresh := make(map[int]*domain.PullRequest, len(prs))
	for _, pr := range prs {
		fresh[pr.ID] = pr.Clone()
	}

	s.mu.Lock()
	s.courses[courseID] = fresh
	s.mu.Unlock()
}

// Loaded сообщает, загружался ли уже набор PR курса.
func (s *Store) Loaded(courseID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.courses[courseID]
	return ok
}

// Get возвращает копию записи, чтобы вызывающий не мог менять кэш напрямую.
func (s *Store) Get(courseID, prID int) (*domain.PullRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pr, ok := s.courses[courseID][prID]
	if !ok {
		return nil, false
	}
	return pr.Clone(), true
}

// List возвращает копии всех PR курса, упорядоченные по номеру PR.
func (s *Store) List(courseID int) []*domain.PullRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prs := make([]*domain.PullRequest, 0, len(s.courses[courseID]))
	for _, pr := range s.courses[courseID] {
		prs = append(prs, pr.Clone())
	}
	sort.Slice(prs, func(i, j int) bool { return prs[i].Number < prs[j].Number })
	return prs
}

// Upsert применяет патч к записи курса. Возвращает false, если записи нет:
// кэш не изобретает PR, которых не давала синхронизация.
func (s *Store) Upsert(courseID int, patch domain.PullRequestPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(courseID, patch)
}

// UpsertMany применяет набор патчей под одной блокировкой, чтобы конкурентные
// писатели не увидели частично применённый батч. Возвращает число применённых.
func (s *Store) UpsertMany(courseID int, patches []domain.PullRequestPatch) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, patch := range patches {
		if s.apply(courseID, patch) {
			applied++
		}
	}
	return applied
}

// apply сливает ненулевые поля патча в запись. Переходы grade_status
// проверяются машиной состояний: недопустимый переход молча игнорируется,
// остальные поля патча при этом применяются. Результат, однажды появившись,
// патчем не стирается (nil означает «не трогать»).
func (s *Store) apply(courseID int, patch domain.PullRequestPatch) bool {
	pr, ok := s.courses[courseID][patch.ID]
	if !ok {
		return false
	}

	if patch.AssignmentID != nil {
		pr.AssignmentID = *patch.AssignmentID
	}
	if patch.Number != nil {
		pr.Number = *patch.Number
	}
	if patch.Title != nil {
		pr.Title = *patch.Title
	}
	if patch.Description != nil {
		pr.Description = *patch.Description
	}
	if patch.Status != nil {
		pr.Status = *patch.Status
	}
	if patch.Result != nil {
		pr.Result = patch.Result.Clone()
	}
	if patch.GradeStatus != nil && pr.GradeStatus.CanTransition(*patch.GradeStatus) {
		pr.GradeStatus = *patch.GradeStatus
	}
	return true
}
