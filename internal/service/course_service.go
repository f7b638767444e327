package service

import (
	"context"
	"errors"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"strings"
)

// CourseService handles course CRUD operations
type CourseService struct {
	courses repository.CourseRepo
}

// NewCourseService creates a new course service
func NewCourseService(courses repository.CourseRepo) *CourseService {
	return &CourseService{
		courses: courses,
	}
}

// Create creates a course with a unique code
func (s *CourseService) Create(ctx context.Context, req *model.CourseRequest) (*model.Course, error) {
	course := &model.Course{}
	if err := applyCourse(course, req, true); err != nil {
		return nil, err
	}
	if err := s.checkCode(ctx, course.Code, ""); err != nil {
		return nil, err
	}

	if _, err := s.courses.Create(ctx, course); err != nil {
		return nil, s.mapWriteErr(err)
	}
	return course, nil
}

// Get retrieves a course by ID
func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, notFound("course")
	}
	return course, nil
}

// List returns a page of courses ordered by code
func (s *CourseService) List(ctx context.Context, skip, limit int64) ([]*model.Course, error) {
	return s.courses.List(ctx, skip, limit)
}

// Update applies the non-nil fields of req
func (s *CourseService) Update(ctx context.Context, id string, req *model.CourseRequest) (*model.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCourse(course, req, false); err != nil {
		return nil, err
	}
	if err := s.checkCode(ctx, course.Code, course.ID); err != nil {
		return nil, err
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, s.mapWriteErr(err)
	}
	return course, nil
}

// Delete removes a course
func (s *CourseService) Delete(ctx context.Context, id string) error {
	deleted, err := s.courses.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("course")
	}
	return nil
}

func (s *CourseService) checkCode(ctx context.Context, code, selfID string) error {
	existing, err := s.courses.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return conflict("course code already exists")
	}
	return nil
}

func (s *CourseService) mapWriteErr(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return conflict("course code already exists")
	}
	return err
}

func applyCourse(course *model.Course, req *model.CourseRequest, create bool) error {
	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		course.Code = strings.TrimSpace(*req.Code)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}

	if (create || req.Name != nil) && course.Name == "" {
		return invalid("name is required")
	}
	if (create || req.Code != nil) && course.Code == "" {
		return invalid("code is required")
	}
	return nil
}
