package gqlapi

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/trezcool/empoderar/core/course"
)

type courseResolver struct {
	root *Resolver
	c    course.Course
}

func (r *Resolver) newCourse(c course.Course) *courseResolver {
	return &courseResolver{root: r, c: c}
}

func (r *Resolver) newCourses(courses []course.Course) *[]*courseResolver {
	list := make([]*courseResolver, 0, len(courses))
	for _, c := range courses {
		list = append(list, r.newCourse(c))
	}
	return &list
}

func (c *courseResolver) ID() graphql.ID        { return graphql.ID(c.c.ID) }
func (c *courseResolver) Title() string         { return c.c.Title }
func (c *courseResolver) Description() *string  { return optString(c.c.Description) }
func (c *courseResolver) Category() string      { return c.c.Category }
func (c *courseResolver) Duration() int32       { return int32(c.c.Hours()) }
func (c *courseResolver) ContentURL() *string   { return optString(c.c.ContentURL) }
func (c *courseResolver) VideoURL() *string     { return optString(c.c.VideoURL) }
func (c *courseResolver) ThumbnailURL() *string { return optString(c.c.ThumbnailURL) }
func (c *courseResolver) IsFree() bool          { return c.c.IsFree }
func (c *courseResolver) Price() float64        { return c.c.Price }
func (c *courseResolver) Certification() bool   { return c.c.Certification }
func (c *courseResolver) Level() string         { return c.c.Level }
func (c *courseResolver) IsActive() bool        { return c.c.IsActive }
func (c *courseResolver) CreatedAt() string     { return formatTime(c.c.CreatedAt) }
func (c *courseResolver) UpdatedAt() string     { return formatTime(c.c.UpdatedAt) }

func (c *courseResolver) Instructor(ctx context.Context) (*userResolver, error) {
	return c.root.userByID(ctx, c.c.InstructorID)
}

// Enrollments lists every enrollment for admins and the instructor; other users only see their own.
func (c *courseResolver) Enrollments(ctx context.Context) (*[]*enrollmentResolver, error) {
	v := viewer(ctx)
	if v.ID == "" {
		return nil, nil
	}
	filter := course.EnrollmentFilter{CourseID: c.c.ID}
	if !v.IsAdmin() && v.ID != c.c.InstructorID {
		filter.UserID = v.ID
	}
	enrollments, err := c.root.courses.Enrollments(ctx, filter)
	if err != nil {
		return nil, err
	}
	return c.root.newEnrollments(enrollments), nil
}

type enrollmentResolver struct {
	root *Resolver
	e    course.Enrollment
}

func (r *Resolver) newEnrollment(e course.Enrollment) *enrollmentResolver {
	return &enrollmentResolver{root: r, e: e}
}

func (r *Resolver) newEnrollments(enrollments []course.Enrollment) *[]*enrollmentResolver {
	list := make([]*enrollmentResolver, 0, len(enrollments))
	for _, e := range enrollments {
		list = append(list, r.newEnrollment(e))
	}
	return &list
}

func (e *enrollmentResolver) ID() graphql.ID         { return graphql.ID(e.e.ID) }
func (e *enrollmentResolver) Progress() float64      { return e.e.Progress }
func (e *enrollmentResolver) Completed() bool        { return e.e.Completed }
func (e *enrollmentResolver) EnrolledAt() string     { return formatTime(e.e.EnrolledAt) }
func (e *enrollmentResolver) CompletedAt() *string   { return optTime(e.e.CompletedAt) }
func (e *enrollmentResolver) CertifiedAt() *string   { return optTime(e.e.CertifiedAt) }
func (e *enrollmentResolver) LastAccessedAt() string { return formatTime(e.e.LastAccessedAt) }
func (e *enrollmentResolver) Notes() *string         { return optString(e.e.Notes) }

func (e *enrollmentResolver) User(ctx context.Context) (*userResolver, error) {
	usr, err := e.root.users.GetByID(ctx, e.e.UserID)
	if err != nil {
		return nil, err
	}
	return e.root.newUser(usr), nil
}

func (e *enrollmentResolver) Course(ctx context.Context) (*courseResolver, error) {
	c, err := e.root.courses.Get(ctx, e.e.CourseID)
	if err != nil {
		return nil, err
	}
	return e.root.newCourse(c), nil
}

// queries

func (r *Resolver) AllCourses(ctx context.Context) (*[]*courseResolver, error) {
	courses, err := r.courses.QueryActive(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return r.newCourses(courses), nil
}

func (r *Resolver) GetCourse(ctx context.Context, args struct{ ID graphql.ID }) (*courseResolver, error) {
	c, err := r.courses.Get(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.newCourse(c), nil
}

func (r *Resolver) CoursesByCategory(ctx context.Context, args struct{ Category string }) (*[]*courseResolver, error) {
	courses, err := r.courses.QueryActive(ctx, args.Category, "")
	if err != nil {
		return nil, err
	}
	return r.newCourses(courses), nil
}

func (r *Resolver) CoursesByLevel(ctx context.Context, args struct{ Level string }) (*[]*courseResolver, error) {
	courses, err := r.courses.QueryActive(ctx, "", args.Level)
	if err != nil {
		return nil, err
	}
	return r.newCourses(courses), nil
}

func (r *Resolver) MyEnrollments(ctx context.Context) (*[]*enrollmentResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := r.courses.Enrollments(ctx, course.EnrollmentFilter{UserID: usr.ID})
	if err != nil {
		return nil, err
	}
	return r.newEnrollments(enrollments), nil
}

func (r *Resolver) CourseEnrollments(ctx context.Context, args struct{ CourseID graphql.ID }) (*[]*enrollmentResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	enrollments, err := r.courses.Enrollments(ctx, course.EnrollmentFilter{CourseID: string(args.CourseID)})
	if err != nil {
		return nil, err
	}
	return r.newEnrollments(enrollments), nil
}

// mutations

type createCourseArgs struct {
	Title         string
	Description   *string
	Category      string
	Duration      float64
	ContentURL    *string
	VideoURL      *string
	ThumbnailURL  *string
	IsFree        *bool
	Price         *float64
	Certification *bool
	Level         *string
}

func (r *Resolver) CreateCourse(ctx context.Context, args createCourseArgs) (*courseResolver, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	nc := course.NewCourse{
		Title:         args.Title,
		Category:      args.Category,
		Duration:      args.Duration,
		IsFree:        args.IsFree,
		Price:         args.Price,
		Certification: args.Certification,
	}
	if args.Description != nil {
		nc.Description = *args.Description
	}
	if args.ContentURL != nil {
		nc.ContentURL = *args.ContentURL
	}
	if args.VideoURL != nil {
		nc.VideoURL = *args.VideoURL
	}
	if args.ThumbnailURL != nil {
		nc.ThumbnailURL = *args.ThumbnailURL
	}
	if args.Level != nil {
		nc.Level = *args.Level
	}

	c, err := r.courses.Create(ctx, admin, nc)
	if err != nil {
		return nil, err
	}
	return r.newCourse(c), nil
}

type updateCourseArgs struct {
	ID            graphql.ID
	Title         *string
	Description   *string
	Category      *string
	Duration      *float64
	ContentURL    *string
	VideoURL      *string
	ThumbnailURL  *string
	IsFree        *bool
	Price         *float64
	Certification *bool
	Level         *string
	IsActive      *bool
}

func (r *Resolver) UpdateCourse(ctx context.Context, args updateCourseArgs) (*courseResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	c, err := r.courses.Update(ctx, string(args.ID), course.UpdateCourse{
		Title:         args.Title,
		Description:   args.Description,
		Category:      args.Category,
		Duration:      args.Duration,
		ContentURL:    args.ContentURL,
		VideoURL:      args.VideoURL,
		ThumbnailURL:  args.ThumbnailURL,
		IsFree:        args.IsFree,
		Price:         args.Price,
		Certification: args.Certification,
		Level:         args.Level,
		IsActive:      args.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return r.newCourse(c), nil
}

func (r *Resolver) DeleteCourse(ctx context.Context, args struct{ ID graphql.ID }) (*courseResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	c, err := r.courses.Delete(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.newCourse(c), nil
}

func (r *Resolver) EnrollInCourse(ctx context.Context, args struct{ CourseID graphql.ID }) (*enrollmentResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	e, err := r.courses.Enroll(ctx, usr, string(args.CourseID))
	if err != nil {
		return nil, err
	}
	return r.newEnrollment(e), nil
}

type updateProgressArgs struct {
	EnrollmentID graphql.ID
	Progress     float64
}

func (r *Resolver) UpdateCourseProgress(ctx context.Context, args updateProgressArgs) (*enrollmentResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	e, err := r.courses.UpdateProgress(ctx, usr, string(args.EnrollmentID), args.Progress)
	if err != nil {
		return nil, err
	}
	return r.newEnrollment(e), nil
}

func (r *Resolver) CompleteCourseEnrollment(ctx context.Context, args struct{ EnrollmentID graphql.ID }) (*enrollmentResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	e, err := r.courses.Complete(ctx, usr, string(args.EnrollmentID))
	if err != nil {
		return nil, err
	}
	return r.newEnrollment(e), nil
}
