package gqlapi

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/user"
)

type userResolver struct {
	root *Resolver
	usr  user.User
}

func (r *Resolver) newUser(usr user.User) *userResolver {
	return &userResolver{root: r, usr: usr}
}

func (r *Resolver) newUsers(users []user.User) *[]*userResolver {
	list := make([]*userResolver, 0, len(users))
	for _, usr := range users {
		list = append(list, r.newUser(usr))
	}
	return &list
}

// userByID resolves an optional user reference; dangling ids resolve to null.
func (r *Resolver) userByID(ctx context.Context, id string) (*userResolver, error) {
	if id == "" {
		return nil, nil
	}
	usr, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.newUser(usr), nil
}

func (u *userResolver) ID() graphql.ID          { return graphql.ID(u.usr.ID) }
func (u *userResolver) Name() string            { return u.usr.Name }
func (u *userResolver) Email() string           { return u.usr.Email }
func (u *userResolver) Role() string            { return u.usr.Role }
func (u *userResolver) Phone() *string          { return optString(u.usr.Phone) }
func (u *userResolver) Address() *string        { return optString(u.usr.Address) }
func (u *userResolver) Identification() *string { return optString(u.usr.Identification) }
func (u *userResolver) IsActive() bool          { return u.usr.IsActive }
func (u *userResolver) CreatedAt() string       { return formatTime(u.usr.CreatedAt) }
func (u *userResolver) UpdatedAt() string       { return formatTime(u.usr.UpdatedAt) }
func (u *userResolver) LastLogin() *string      { return optTime(u.usr.LastLogin) }

func (u *userResolver) Preferences() *preferencesResolver {
	return &preferencesResolver{u.usr.Preferences}
}

func (u *userResolver) Privacy() *privacyResolver {
	return &privacyResolver{u.usr.Privacy}
}

func (u *userResolver) isSelfOrAdmin(ctx context.Context) bool {
	v := viewer(ctx)
	return v.ID != "" && (v.ID == u.usr.ID || v.IsAdmin())
}

// Courses lists the enrollments of the user, newest first.
func (u *userResolver) Courses(ctx context.Context) (*[]*enrollmentResolver, error) {
	if !u.isSelfOrAdmin(ctx) && !u.usr.Privacy.ShareProgress {
		return nil, nil
	}
	enrollments, err := u.root.courses.Enrollments(ctx, course.EnrollmentFilter{UserID: u.usr.ID})
	if err != nil {
		return nil, err
	}
	return u.root.newEnrollments(enrollments), nil
}

// Loans lists the loans of the user, newest first.
func (u *userResolver) Loans(ctx context.Context) (*[]*loanResolver, error) {
	if !u.isSelfOrAdmin(ctx) {
		return nil, nil
	}
	loans, err := u.root.loans.Query(ctx, loan.QueryFilter{UserID: u.usr.ID})
	if err != nil {
		return nil, err
	}
	return u.root.newLoans(loans), nil
}

type preferencesResolver struct {
	prefs user.Preferences
}

func (p *preferencesResolver) Theme() string            { return p.prefs.Theme }
func (p *preferencesResolver) Language() string         { return p.prefs.Language }
func (p *preferencesResolver) EmailNotifications() bool { return p.prefs.EmailNotifications }
func (p *preferencesResolver) CourseReminders() bool    { return p.prefs.CourseReminders }
func (p *preferencesResolver) LoanUpdates() bool        { return p.prefs.LoanUpdates }

type privacyResolver struct {
	privacy user.Privacy
}

func (p *privacyResolver) ProfileVisibility() string { return p.privacy.ProfileVisibility }
func (p *privacyResolver) ShareProgress() bool       { return p.privacy.ShareProgress }
func (p *privacyResolver) AllowAnalytics() bool      { return p.privacy.AllowAnalytics }

type authPayloadResolver struct {
	token string
	usr   *userResolver
}

func (p *authPayloadResolver) Token() string       { return p.token }
func (p *authPayloadResolver) User() *userResolver { return p.usr }

func (r *Resolver) newAuthPayload(usr user.User) (*authPayloadResolver, error) {
	token, err := r.tokens.IssueToken(usr)
	if err != nil {
		return nil, err
	}
	return &authPayloadResolver{token: token, usr: r.newUser(usr)}, nil
}

// queries

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return r.newUser(usr), nil
}

// GetUser returns any user whose profile the viewer may see.
func (r *Resolver) GetUser(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	usr, err := r.users.GetByID(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	if !viewer(ctx).CanView(usr) {
		return nil, core.ErrForbidden
	}
	return r.newUser(usr), nil
}

func (r *Resolver) AllUsers(ctx context.Context) (*[]*userResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := r.users.QueryActive(ctx, "")
	if err != nil {
		return nil, err
	}
	return r.newUsers(users), nil
}

func (r *Resolver) UsersByRole(ctx context.Context, args struct{ Role string }) (*[]*userResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := r.users.QueryActive(ctx, args.Role)
	if err != nil {
		return nil, err
	}
	return r.newUsers(users), nil
}

// mutations

type registerUserArgs struct {
	Name           string
	Email          string
	Password       string
	Phone          *string
	Address        *string
	Identification *string
	Role           *string
}

func (r *Resolver) RegisterUser(ctx context.Context, args registerUserArgs) (*authPayloadResolver, error) {
	nu := user.NewUser{
		Name:     args.Name,
		Email:    args.Email,
		Password: args.Password,
	}
	if args.Phone != nil {
		nu.Phone = *args.Phone
	}
	if args.Address != nil {
		nu.Address = *args.Address
	}
	if args.Identification != nil {
		nu.Identification = *args.Identification
	}
	if args.Role != nil {
		nu.Role = *args.Role
	}

	usr, err := r.users.Register(ctx, nu)
	if err != nil {
		return nil, err
	}
	return r.newAuthPayload(usr)
}

func (r *Resolver) LoginUser(ctx context.Context, args struct{ Email, Password string }) (*authPayloadResolver, error) {
	usr, err := r.users.Authenticate(ctx, args.Email, args.Password)
	if err != nil {
		return nil, err
	}
	return r.newAuthPayload(usr)
}

func (r *Resolver) RefreshToken(ctx context.Context) (*authPayloadResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	token, err := r.tokens.RefreshToken(ctx, usr)
	if err != nil {
		return nil, err
	}
	return &authPayloadResolver{token: token, usr: r.newUser(usr)}, nil
}

type updateProfileArgs struct {
	Name           *string
	Phone          *string
	Address        *string
	Identification *string
}

func (r *Resolver) UpdateProfile(ctx context.Context, args updateProfileArgs) (*userResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	usr, err = r.users.UpdateProfile(ctx, usr.ID, user.UpdateProfile(args))
	if err != nil {
		return nil, err
	}
	return r.newUser(usr), nil
}

type updatePreferencesArgs struct {
	Theme              *string
	Language           *string
	EmailNotifications *bool
	CourseReminders    *bool
	LoanUpdates        *bool
}

func (r *Resolver) UpdatePreferences(ctx context.Context, args updatePreferencesArgs) (*userResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	usr, err = r.users.UpdatePreferences(ctx, usr.ID, user.UpdatePreferences(args))
	if err != nil {
		return nil, err
	}
	return r.newUser(usr), nil
}

type updatePrivacyArgs struct {
	ProfileVisibility *string
	ShareProgress     *bool
	AllowAnalytics    *bool
}

func (r *Resolver) UpdatePrivacy(ctx context.Context, args updatePrivacyArgs) (*userResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	usr, err = r.users.UpdatePrivacy(ctx, usr.ID, user.UpdatePrivacy(args))
	if err != nil {
		return nil, err
	}
	return r.newUser(usr), nil
}

type setUserActiveArgs struct {
	ID       graphql.ID
	IsActive bool
}

func (r *Resolver) SetUserActive(ctx context.Context, args setUserActiveArgs) (*userResolver, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	usr, err := r.users.SetActive(ctx, admin, string(args.ID), args.IsActive)
	if err != nil {
		return nil, err
	}
	return r.newUser(usr), nil
}
