package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course not found")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment not found")
	ErrAlreadyEnrolled    = core.NewConflictError("you are already enrolled in this course")
	ErrCourseInactive     = core.NewInputError("this course is not available")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses returns the courses matching filter, newest first.
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse removes the course and its enrollments.
		DeleteCourse(ctx context.Context, id string) error
		CountCourses(ctx context.Context, filter QueryFilter) (int, error)

		// CreateEnrollment returns ErrAlreadyEnrolled when the user is already enrolled in the course.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		// QueryEnrollments returns the enrollments matching filter, newest first.
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		CountEnrollments(ctx context.Context, filter EnrollmentFilter) (int, error)
	}

	Notifier interface {
		NotifyUsers(ctx context.Context, ids []string, ev notification.Event)
		NotifyRole(ctx context.Context, role string, ev notification.Event)
	}

	Service struct {
		repo     Repository
		notifier Notifier
		validate *validator.Validate
	}
)

func NewService(repo Repository, notifier Notifier, validate *validator.Validate) *Service {
	return &Service{repo: repo, notifier: notifier, validate: validate}
}

// Create adds a Course taught by `instructor` and tells the beneficiaries about it.
func (svc *Service) Create(ctx context.Context, instructor user.User, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}

	now := time.Now().UTC()
	c := Course{
		Title:         nc.Title,
		Description:   nc.Description,
		Category:      nc.Category,
		Duration:      nc.Duration,
		ContentURL:    nc.ContentURL,
		VideoURL:      nc.VideoURL,
		ThumbnailURL:  nc.ThumbnailURL,
		IsFree:        true,
		Certification: false,
		Level:         nc.Level,
		InstructorID:  instructor.ID,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if nc.IsFree != nil {
		c.IsFree = *nc.IsFree
	}
	if nc.Price != nil {
		c.Price = *nc.Price
	}
	if nc.Certification != nil {
		c.Certification = *nc.Certification
	}

	c, err := svc.repo.CreateCourse(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}

	svc.notifier.NotifyRole(ctx, user.RoleBeneficiary, notification.Event{
		Type:         notification.TypeCourseCreated,
		Params:       []interface{}{c.Title},
		RelatedID:    c.ID,
		RelatedModel: notification.ModelCourse,
	})
	return c, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// QueryActive returns the active courses matching the optional category and level.
func (svc *Service) QueryActive(ctx context.Context, category, level string) ([]Course, error) {
	active := true
	return svc.repo.QueryCourses(ctx, QueryFilter{Category: category, Level: level, IsActive: &active})
}

func (svc *Service) CountActive(ctx context.Context) (int, error) {
	active := true
	return svc.repo.CountCourses(ctx, QueryFilter{IsActive: &active})
}

// Update applies `uc` and tells the enrolled users about it.
func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	if err := uc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}

	uc.apply(&c)
	c.UpdatedAt = time.Now().UTC()
	if c, err = svc.repo.UpdateCourse(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}

	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: c.ID})
	if err != nil {
		return Course{}, errors.Wrap(err, "querying enrollments")
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.UserID)
	}
	if len(ids) > 0 {
		svc.notifier.NotifyUsers(ctx, ids, notification.Event{
			Type:         notification.TypeCourseUpdated,
			Params:       []interface{}{c.Title},
			RelatedID:    c.ID,
			RelatedModel: notification.ModelCourse,
		})
	}
	return c, nil
}

// Delete removes the Course `id` with its enrollments and returns it.
func (svc *Service) Delete(ctx context.Context, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err := svc.repo.DeleteCourse(ctx, id); err != nil {
		return Course{}, errors.Wrap(err, "deleting course")
	}
	return c, nil
}

// Enroll enrolls `usr` in the active Course `courseID`.
func (svc *Service) Enroll(ctx context.Context, usr user.User, courseID string) (Enrollment, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !c.IsActive {
		return Enrollment{}, ErrCourseInactive
	}

	now := time.Now().UTC()
	e, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:         usr.ID,
		CourseID:       c.ID,
		EnrolledAt:     now,
		LastAccessedAt: now,
	})
	if err != nil {
		return Enrollment{}, err
	}

	svc.notifier.NotifyUsers(ctx, []string{usr.ID, c.InstructorID}, notification.Event{
		Type:         notification.TypeCourseEnrollment,
		Params:       []interface{}{usr.Name, c.Title},
		RelatedID:    e.ID,
		RelatedModel: notification.ModelEnrollment,
	})
	return e, nil
}

// getEnrollment returns the enrollment `id` if `by` owns it or is an admin.
func (svc *Service) getEnrollment(ctx context.Context, by user.User, id string) (Enrollment, error) {
	e, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if e.UserID != by.ID && !by.IsAdmin() {
		return Enrollment{}, core.ErrForbidden
	}
	return e, nil
}

type progressInput struct {
	Progress float64 `json:"progress" validate:"progress"`
}

// UpdateProgress records the progress of an enrollment; reaching MaxProgress completes it.
func (svc *Service) UpdateProgress(ctx context.Context, by user.User, id string, progress float64) (Enrollment, error) {
	if err := svc.validate.Struct(progressInput{Progress: progress}); err != nil {
		return Enrollment{}, err
	}
	e, err := svc.getEnrollment(ctx, by, id)
	if err != nil {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	e.Progress = progress
	e.LastAccessedAt = now
	if progress >= MaxProgress {
		return svc.complete(ctx, e, now)
	}
	return svc.repo.UpdateEnrollment(ctx, e)
}

// Complete marks an enrollment as completed, certifying it when the course awards a certificate.
func (svc *Service) Complete(ctx context.Context, by user.User, id string) (Enrollment, error) {
	e, err := svc.getEnrollment(ctx, by, id)
	if err != nil {
		return Enrollment{}, err
	}
	now := time.Now().UTC()
	e.LastAccessedAt = now
	return svc.complete(ctx, e, now)
}

func (svc *Service) complete(ctx context.Context, e Enrollment, now time.Time) (Enrollment, error) {
	wasCompleted := e.Completed
	e.Progress = MaxProgress
	e.Completed = true
	if e.CompletedAt.IsZero() {
		e.CompletedAt = now
	}

	c, err := svc.repo.GetCourse(ctx, e.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if c.Certification && e.CertifiedAt.IsZero() {
		e.CertifiedAt = now
	}

	if e, err = svc.repo.UpdateEnrollment(ctx, e); err != nil {
		return Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if !wasCompleted {
		svc.notifier.NotifyUsers(ctx, []string{e.UserID}, notification.Event{
			Type:         notification.TypeCourseCompleted,
			Params:       []interface{}{c.Title},
			RelatedID:    e.ID,
			RelatedModel: notification.ModelEnrollment,
		})
	}
	return e, nil
}

func (svc *Service) GetEnrollment(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

func (svc *Service) Enrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *Service) CountEnrollments(ctx context.Context, filter EnrollmentFilter) (int, error) {
	return svc.repo.CountEnrollments(ctx, filter)
}
