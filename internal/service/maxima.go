package service

import (
	"context"
	"selfeval/internal/cache"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/scoring"

	"go.uber.org/zap"
)

// SurveyRefresher keeps survey maxima and cached question lists in step with
// the associations of the survey's courses
type SurveyRefresher struct {
	surveys repository.SurveyRepo
	qcas    repository.QCARepo
	cache   cache.SurveyCache
	log     *zap.Logger
}

// NewSurveyRefresher creates a refresher; a nil cache disables invalidation
func NewSurveyRefresher(surveys repository.SurveyRepo, qcas repository.QCARepo, surveyCache cache.SurveyCache, log *zap.Logger) *SurveyRefresher {
	return &SurveyRefresher{
		surveys: surveys,
		qcas:    qcas,
		cache:   surveyCache,
		log:     log,
	}
}

func (r *SurveyRefresher) maxima(ctx context.Context, courseIDs []string) (map[string]float64, float64, error) {
	qcas, err := r.qcas.ListByCourseIDs(ctx, courseIDs)
	if err != nil {
		return nil, 0, err
	}
	associations := make([]scoring.Association, 0, len(qcas))
	for _, qca := range qcas {
		associations = append(associations, scoring.LoadAssociation(qca))
	}
	perCourse, overall := scoring.ComputeMaxima(courseIDs, associations)
	return perCourse, overall, nil
}

// refreshCourses recomputes the maxima of every survey using any of the courses
func (r *SurveyRefresher) refreshCourses(ctx context.Context, courseIDs ...string) error {
	seen := make(map[string]*model.Survey)
	for _, courseID := range courseIDs {
		surveys, err := r.surveys.ListByCourseID(ctx, courseID)
		if err != nil {
			return err
		}
		for _, sv := range surveys {
			seen[sv.ID] = sv
		}
	}

	ids := make([]string, 0, len(seen))
	for id, sv := range seen {
		perCourse, overall, err := r.maxima(ctx, sv.CourseIDs)
		if err != nil {
			return err
		}
		if err := r.surveys.UpdateMaxima(ctx, id, perCourse, overall); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	r.invalidate(ctx, ids...)
	return nil
}

func (r *SurveyRefresher) invalidate(ctx context.Context, surveyIDs ...string) {
	if r.cache == nil || len(surveyIDs) == 0 {
		return
	}
	if err := r.cache.Invalidate(ctx, surveyIDs...); err != nil {
		r.log.Warn("failed to invalidate survey cache", zap.Strings("surveys", surveyIDs), zap.Error(err))
	}
}
