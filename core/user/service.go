package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = core.NewConflictError("a user with this email already exists")
	ErrInvalidCredentials = core.NewAppError(core.CodeUnauthenticated, "invalid credentials")
	ErrAccountDeactivated = core.NewAppError(core.CodeForbidden, "account deactivated")
	ErrSelfDeactivation   = core.NewInputError("you cannot deactivate your own account")
)

type (
	Repository interface {
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers returns users matching every set field of filter, newest first.
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:           nu.Name,
		Email:          nu.Email,
		Role:           nu.Role,
		Phone:          nu.Phone,
		Address:        nu.Address,
		Identification: nu.Identification,
		IsActive:       true,
		Preferences:    DefaultPreferences(),
		Privacy:        DefaultPrivacy(),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastLogin:      now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter)
}

// QueryActive returns the active users, optionally restricted to a role.
func (svc *Service) QueryActive(ctx context.Context, role string) ([]User, error) {
	active := true
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: role, IsActive: &active})
}

func (svc *Service) CountActive(ctx context.Context) (int, error) {
	active := true
	return svc.repo.CountUsers(ctx, QueryFilter{IsActive: &active})
}

func (svc *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error) {
	if err := up.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	if up.Name != nil {
		usr.Name = *up.Name
	}
	if up.Phone != nil {
		usr.Phone = *up.Phone
	}
	if up.Address != nil {
		usr.Address = *up.Address
	}
	if up.Identification != nil {
		usr.Identification = *up.Identification
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) UpdatePreferences(ctx context.Context, id string, up UpdatePreferences) (User, error) {
	if err := up.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	prefs := &usr.Preferences
	if up.Theme != nil {
		prefs.Theme = *up.Theme
	}
	if up.Language != nil {
		prefs.Language = *up.Language
	}
	if up.EmailNotifications != nil {
		prefs.EmailNotifications = *up.EmailNotifications
	}
	if up.CourseReminders != nil {
		prefs.CourseReminders = *up.CourseReminders
	}
	if up.LoanUpdates != nil {
		prefs.LoanUpdates = *up.LoanUpdates
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) UpdatePrivacy(ctx context.Context, id string, up UpdatePrivacy) (User, error) {
	if err := up.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	if up.ProfileVisibility != nil {
		usr.Privacy.ProfileVisibility = *up.ProfileVisibility
	}
	if up.ShareProgress != nil {
		usr.Privacy.ShareProgress = *up.ShareProgress
	}
	if up.AllowAnalytics != nil {
		usr.Privacy.AllowAnalytics = *up.AllowAnalytics
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetActive (de)activates the user `id` on behalf of `by`.
func (svc *Service) SetActive(ctx context.Context, by User, id string, active bool) (User, error) {
	if !by.IsAdmin() {
		return User{}, core.ErrForbidden
	}
	if by.ID == id && !active {
		return User{}, ErrSelfDeactivation
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetPassword replaces the password of the user `email` after checking the password policy.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := ValidatePassword(pwd, usr.Name, usr.Email); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ValidatePassword checks `pwd` against the password policy; attrs are the user attributes it must not resemble.
func ValidatePassword(pwd string, attrs ...string) error {
	if tag := CheckPassword(pwd, attrs...); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdPolicyText(tag)})
	}
	return nil
}

func pwdPolicyText(tag string) string {
	switch tag {
	case pwdMinLenTag:
		return pwdMinLenText[core.LangEN]
	case pwdBlankTag:
		return pwdBlankText[core.LangEN]
	}
	return pwdAttrSimText[core.LangEN]
}
