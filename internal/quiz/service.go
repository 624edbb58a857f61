package quiz

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Service handles questionnaire business logic.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Questions returns the active question bank. Concurrent cache misses
// collapse into a single repository load.
func (s *Service) Questions(ctx context.Context) ([]Question, error) {
	key, err := s.cache.BuildKey(ctx, "quiz", "perguntas")
	if err != nil {
		return s.repo.ListActiveQuestions(ctx)
	}
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var questions []Question
		err := s.cache.FetchJSON(ctx, key, &questions, func(ctx context.Context) (interface{}, error) {
			return s.repo.ListActiveQuestions(ctx)
		})
		return questions, err
	})
	if err != nil {
		return nil, err
	}
	return value.([]Question), nil
}

// SaveResult stores the submitted scores under a server-computed course
// recommendation and returns the stored record.
func (s *Service) SaveResult(ctx context.Context, candidatoID int64, scores Scores) (*Result, error) {
	result := &Result{
		CandidatoID:      candidatoID,
		Scores:           scores,
		CursoRecomendado: RecommendCourse(scores),
	}
	id, err := s.repo.InsertResult(ctx, result)
	if err != nil {
		return nil, err
	}
	result.ID = id
	return result, nil
}

// MyResults lists the candidate's past questionnaire runs.
func (s *Service) MyResults(ctx context.Context, candidatoID int64) ([]Result, error) {
	return s.repo.ListResultsByCandidate(ctx, candidatoID)
}
