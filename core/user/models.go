package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/empoderar/core"
)

// Roles
const (
	RoleBeneficiary = "beneficiary"
	RoleMentor      = "mentor"
	RoleAdmin       = "admin"
)

// Themes
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Profile visibilities
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityFriends = "friends"
)

var (
	AllRoles        = []string{RoleBeneficiary, RoleMentor, RoleAdmin}
	AllThemes       = []string{ThemeLight, ThemeDark, ThemeAuto}
	AllVisibilities = []string{VisibilityPublic, VisibilityPrivate, VisibilityFriends}
)

type Preferences struct {
	Theme              string `json:"theme"`
	Language           string `json:"language"`
	EmailNotifications bool   `json:"emailNotifications"`
	CourseReminders    bool   `json:"courseReminders"`
	LoanUpdates        bool   `json:"loanUpdates"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:              ThemeLight,
		Language:           core.DefaultLanguage,
		EmailNotifications: true,
		CourseReminders:    true,
		LoanUpdates:        true,
	}
}

type Privacy struct {
	ProfileVisibility string `json:"profileVisibility"`
	ShareProgress     bool   `json:"shareProgress"`
	AllowAnalytics    bool   `json:"allowAnalytics"`
}

func DefaultPrivacy() Privacy {
	return Privacy{
		ProfileVisibility: VisibilityPublic,
		ShareProgress:     true,
		AllowAnalytics:    true,
	}
}

type User struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           string      `json:"role"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	Identification string      `json:"identification"`
	IsActive       bool        `json:"isActive"`
	Preferences    Preferences `json:"preferences"`
	Privacy        Privacy     `json:"privacy"`
	PasswordHash   []byte      `json:"-"`
	CreatedAt      time.Time   `json:"createdAt"` // UTC
	UpdatedAt      time.Time   `json:"updatedAt"` // UTC
	LastLogin      time.Time   `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool       { return u.Role == RoleAdmin }
func (u User) IsMentor() bool      { return u.Role == RoleMentor }
func (u User) IsBeneficiary() bool { return u.Role == RoleBeneficiary }

// Language is the language notifications and messages are written in for this User.
func (u User) Language() string {
	return core.NormalizeLanguage(u.Preferences.Language)
}

// CanView reports whether u may see the profile of other.
func (u User) CanView(other User) bool {
	if u.ID == other.ID || u.IsAdmin() {
		return true
	}
	switch other.Privacy.ProfileVisibility {
	case VisibilityPrivate:
		return false
	case VisibilityFriends:
		return u.ID != ""
	}
	return true
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Identification string `json:"identification"`
	Role           string `json:"role" validate:"role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Address = core.CleanString(nu.Address)
	nu.Identification = core.CleanString(nu.Identification)
	if nu.Role == "" {
		nu.Role = RoleBeneficiary
	}
	return validate.Struct(nu)
}

// UpdateProfile defines what information a User may change on their own profile.
// nil fields are left untouched.
type UpdateProfile struct {
	Name           *string `json:"name" validate:"omitempty,notblank"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Identification *string `json:"identification"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanStringPtr(up.Name)
	up.Phone = core.CleanStringPtr(up.Phone)
	up.Address = core.CleanStringPtr(up.Address)
	up.Identification = core.CleanStringPtr(up.Identification)
	return validate.Struct(up)
}

type UpdatePreferences struct {
	Theme              *string `json:"theme" validate:"omitempty,theme"`
	Language           *string `json:"language" validate:"omitempty,language"`
	EmailNotifications *bool   `json:"emailNotifications"`
	CourseReminders    *bool   `json:"courseReminders"`
	LoanUpdates        *bool   `json:"loanUpdates"`
}

func (up *UpdatePreferences) Validate(validate *validator.Validate) error {
	up.Theme = core.CleanStringPtr(up.Theme, true /* lower */)
	up.Language = core.CleanStringPtr(up.Language, true /* lower */)
	return validate.Struct(up)
}

type UpdatePrivacy struct {
	ProfileVisibility *string `json:"profileVisibility" validate:"omitempty,visibility"`
	ShareProgress     *bool   `json:"shareProgress"`
	AllowAnalytics    *bool   `json:"allowAnalytics"`
}

func (up *UpdatePrivacy) Validate(validate *validator.Validate) error {
	up.ProfileVisibility = core.CleanStringPtr(up.ProfileVisibility, true /* lower */)
	return validate.Struct(up)
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Role     string
	IsActive *bool
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the authenticated User.
func NewContext(ctx context.Context, usr User) context.Context {
	return context.WithValue(ctx, ctxKey{}, usr)
}

// FromContext returns the authenticated User, if any.
func FromContext(ctx context.Context) (User, bool) {
	usr, ok := ctx.Value(ctxKey{}).(User)
	return usr, ok
}
