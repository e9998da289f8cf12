package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/course"
)

const (
	courseColumns = `id, title, description, category, duration, content_url, video_url, thumbnail_url,
	is_free, price, certification, level, instructor_id, is_active, created_at, updated_at`
	enrollmentColumns = `id, user_id, course_id, progress, completed, enrolled_at, completed_at,
	certified_at, last_accessed_at, notes`
)

type dbCourse struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Description   string      `db:"description"`
	Category      string      `db:"category"`
	Duration      float64     `db:"duration"`
	ContentURL    null.String `db:"content_url"`
	VideoURL      null.String `db:"video_url"`
	ThumbnailURL  null.String `db:"thumbnail_url"`
	IsFree        bool        `db:"is_free"`
	Price         float64     `db:"price"`
	Certification bool        `db:"certification"`
	Level         string      `db:"level"`
	InstructorID  null.String `db:"instructor_id"`
	IsActive      bool        `db:"is_active"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func toDBCourse(c course.Course) dbCourse {
	return dbCourse{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		Duration:      c.Duration,
		ContentURL:    nullString(c.ContentURL),
		VideoURL:      nullString(c.VideoURL),
		ThumbnailURL:  nullString(c.ThumbnailURL),
		IsFree:        c.IsFree,
		Price:         c.Price,
		Certification: c.Certification,
		Level:         c.Level,
		InstructorID:  nullString(c.InstructorID),
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (c dbCourse) toCourse() course.Course {
	return course.Course{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		Duration:      c.Duration,
		ContentURL:    c.ContentURL.String,
		VideoURL:      c.VideoURL.String,
		ThumbnailURL:  c.ThumbnailURL.String,
		IsFree:        c.IsFree,
		Price:         c.Price,
		Certification: c.Certification,
		Level:         c.Level,
		InstructorID:  c.InstructorID.String,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt.UTC(),
		UpdatedAt:     c.UpdatedAt.UTC(),
	}
}

type dbEnrollment struct {
	ID             string      `db:"id"`
	UserID         string      `db:"user_id"`
	CourseID       string      `db:"course_id"`
	Progress       float64     `db:"progress"`
	Completed      bool        `db:"completed"`
	EnrolledAt     time.Time   `db:"enrolled_at"`
	CompletedAt    null.Time   `db:"completed_at"`
	CertifiedAt    null.Time   `db:"certified_at"`
	LastAccessedAt time.Time   `db:"last_accessed_at"`
	Notes          null.String `db:"notes"`
}

func toDBEnrollment(e course.Enrollment) dbEnrollment {
	return dbEnrollment{
		ID:             e.ID,
		UserID:         e.UserID,
		CourseID:       e.CourseID,
		Progress:       e.Progress,
		Completed:      e.Completed,
		EnrolledAt:     e.EnrolledAt,
		CompletedAt:    null.NewTime(e.CompletedAt, !e.CompletedAt.IsZero()),
		CertifiedAt:    null.NewTime(e.CertifiedAt, !e.CertifiedAt.IsZero()),
		LastAccessedAt: e.LastAccessedAt,
		Notes:          nullString(e.Notes),
	}
}

func (e dbEnrollment) toEnrollment() course.Enrollment {
	enr := course.Enrollment{
		ID:             e.ID,
		UserID:         e.UserID,
		CourseID:       e.CourseID,
		Progress:       e.Progress,
		Completed:      e.Completed,
		EnrolledAt:     e.EnrolledAt.UTC(),
		LastAccessedAt: e.LastAccessedAt.UTC(),
		Notes:          e.Notes.String,
	}
	if e.CompletedAt.Valid {
		enr.CompletedAt = e.CompletedAt.Time.UTC()
	}
	if e.CertifiedAt.Valid {
		enr.CertifiedAt = e.CertifiedAt.Time.UTC()
	}
	return enr
}

type courseRepository struct {
	db core.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db core.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = newID()
	q := `INSERT INTO course (` + courseColumns + `) VALUES (
		:id, :title, :description, :category, :duration, :content_url, :video_url, :thumbnail_url,
		:is_free, :price, :certification, :level, :instructor_id, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toDBCourse(c)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var c dbCourse
	if err := repo.db.GetContext(ctx, &c, `SELECT `+courseColumns+` FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, notFound(err, course.ErrNotFound)
	}
	return c.toCourse(), nil
}

func courseWhere(filter course.QueryFilter) *where {
	w := new(where)
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	if filter.Level != "" {
		w.add("level = ?", filter.Level)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	return w
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	w := courseWhere(filter)
	q := repo.db.Rebind(`SELECT ` + courseColumns + ` FROM course` + w.String() + ` ORDER BY created_at DESC`)

	var rows []dbCourse
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, c := range rows {
		courses = append(courses, c.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) CountCourses(ctx context.Context, filter course.QueryFilter) (int, error) {
	w := courseWhere(filter)
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM course`+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return n, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `UPDATE course SET
		title = :title, description = :description, category = :category, duration = :duration,
		content_url = :content_url, video_url = :video_url, thumbnail_url = :thumbnail_url,
		is_free = :is_free, price = :price, certification = :certification, level = :level,
		instructor_id = :instructor_id, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toDBCourse(c))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err := checkAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_enrollment WHERE course_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting enrollments")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if err := checkAffected(res, course.ErrNotFound); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	e.ID = newID()
	q := `INSERT INTO course_enrollment (` + enrollmentColumns + `) VALUES (
		:id, :user_id, :course_id, :progress, :completed, :enrolled_at, :completed_at,
		:certified_at, :last_accessed_at, :notes)`
	if _, err := repo.db.NamedExecContext(ctx, q, toDBEnrollment(e)); err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, id string) (course.Enrollment, error) {
	var e dbEnrollment
	q := `SELECT ` + enrollmentColumns + ` FROM course_enrollment WHERE id = $1`
	if err := repo.db.GetContext(ctx, &e, q, id); err != nil {
		return course.Enrollment{}, notFound(err, course.ErrEnrollmentNotFound)
	}
	return e.toEnrollment(), nil
}

func enrollmentWhere(filter course.EnrollmentFilter) *where {
	w := new(where)
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.CourseID != "" {
		w.add("course_id = ?", filter.CourseID)
	}
	if filter.Completed != nil {
		w.add("completed = ?", *filter.Completed)
	}
	return w
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	w := enrollmentWhere(filter)
	q := repo.db.Rebind(`SELECT ` + enrollmentColumns + ` FROM course_enrollment` + w.String() + ` ORDER BY enrolled_at DESC`)

	var rows []dbEnrollment
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, e := range rows {
		enrollments = append(enrollments, e.toEnrollment())
	}
	return enrollments, nil
}

func (repo *courseRepository) CountEnrollments(ctx context.Context, filter course.EnrollmentFilter) (int, error) {
	w := enrollmentWhere(filter)
	var n int
	q := repo.db.Rebind(`SELECT COUNT(*) FROM course_enrollment` + w.String())
	if err := repo.db.GetContext(ctx, &n, q, w.args...); err != nil {
		return 0, errors.Wrap(err, "counting enrollments")
	}
	return n, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	q := `UPDATE course_enrollment SET
		progress = :progress, completed = :completed, completed_at = :completed_at,
		certified_at = :certified_at, last_accessed_at = :last_accessed_at, notes = :notes
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toDBEnrollment(e))
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if err := checkAffected(res, course.ErrEnrollmentNotFound); err != nil {
		return course.Enrollment{}, err
	}
	return e, nil
}
