package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/empoderar/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = repo.db.newID()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) queryCourses(filter course.QueryFilter) []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		courses = append(courses, *c)
	}
	return courses
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := repo.queryCourses(filter)
	sort.Slice(courses, func(i, j int) bool {
		return repo.db.newer(courses[i].CreatedAt, courses[i].ID, courses[j].CreatedAt, courses[j].ID)
	})
	return courses, nil
}

func (repo *courseRepository) CountCourses(_ context.Context, filter course.QueryFilter) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.queryCourses(filter)), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	for eid, e := range repo.db.enrollments {
		if e.CourseID == id {
			delete(repo.db.enrollments, eid)
		}
	}
	delete(repo.db.courses, id)
	return nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.enrollments {
		if other.UserID == e.UserID && other.CourseID == e.CourseID {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	e.ID = repo.db.newID()
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, id string) (course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.enrollments[id]; ok {
		return *e, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) queryEnrollments(filter course.EnrollmentFilter) []course.Enrollment {
	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.Completed != nil && e.Completed != *filter.Completed {
			continue
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrollments := repo.queryEnrollments(filter)
	sort.Slice(enrollments, func(i, j int) bool {
		ei, ej := enrollments[i], enrollments[j]
		return repo.db.newer(ei.EnrolledAt, ei.ID, ej.EnrolledAt, ej.ID)
	})
	return enrollments, nil
}

func (repo *courseRepository) CountEnrollments(_ context.Context, filter course.EnrollmentFilter) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.queryEnrollments(filter)), nil
}

func (repo *courseRepository) UpdateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.enrollments[e.ID]; !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	repo.db.enrollments[e.ID] = &e
	return e, nil
}
