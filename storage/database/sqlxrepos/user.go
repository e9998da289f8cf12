package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

const userColumns = `id, name, email, password_hash, role, phone, address, identification, is_active,
	theme, language, email_notifications, course_reminders, loan_updates,
	profile_visibility, share_progress, allow_analytics, created_at, updated_at, last_login`

type dbUser struct {
	ID                 string      `db:"id"`
	Name               string      `db:"name"`
	Email              string      `db:"email"`
	PasswordHash       []byte      `db:"password_hash"`
	Role               string      `db:"role"`
	Phone              null.String `db:"phone"`
	Address            null.String `db:"address"`
	Identification     null.String `db:"identification"`
	IsActive           bool        `db:"is_active"`
	Theme              string      `db:"theme"`
	Language           string      `db:"language"`
	EmailNotifications bool        `db:"email_notifications"`
	CourseReminders    bool        `db:"course_reminders"`
	LoanUpdates        bool        `db:"loan_updates"`
	ProfileVisibility  string      `db:"profile_visibility"`
	ShareProgress      bool        `db:"share_progress"`
	AllowAnalytics     bool        `db:"allow_analytics"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	LastLogin          null.Time   `db:"last_login"`
}

func toDBUser(usr user.User) dbUser {
	if usr.PasswordHash == nil {
		usr.PasswordHash = []byte{} // NOT NULL
	}
	return dbUser{
		ID:                 usr.ID,
		Name:               usr.Name,
		Email:              usr.Email,
		PasswordHash:       usr.PasswordHash,
		Role:               usr.Role,
		Phone:              nullString(usr.Phone),
		Address:            nullString(usr.Address),
		Identification:     nullString(usr.Identification),
		IsActive:           usr.IsActive,
		Theme:              usr.Preferences.Theme,
		Language:           usr.Preferences.Language,
		EmailNotifications: usr.Preferences.EmailNotifications,
		CourseReminders:    usr.Preferences.CourseReminders,
		LoanUpdates:        usr.Preferences.LoanUpdates,
		ProfileVisibility:  usr.Privacy.ProfileVisibility,
		ShareProgress:      usr.Privacy.ShareProgress,
		AllowAnalytics:     usr.Privacy.AllowAnalytics,
		CreatedAt:          usr.CreatedAt,
		UpdatedAt:          usr.UpdatedAt,
		LastLogin:          null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
}

func (u dbUser) toUser() user.User {
	usr := user.User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		Phone:          u.Phone.String,
		Address:        u.Address.String,
		Identification: u.Identification.String,
		IsActive:       u.IsActive,
		Preferences: user.Preferences{
			Theme:              u.Theme,
			Language:           u.Language,
			EmailNotifications: u.EmailNotifications,
			CourseReminders:    u.CourseReminders,
			LoanUpdates:        u.LoanUpdates,
		},
		Privacy: user.Privacy{
			ProfileVisibility: u.ProfileVisibility,
			ShareProgress:     u.ShareProgress,
			AllowAnalytics:    u.AllowAnalytics,
		},
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
	if u.LastLogin.Valid {
		usr.LastLogin = u.LastLogin.Time.UTC()
	}
	return usr
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID()
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (
		:id, :name, :email, :password_hash, :role, :phone, :address, :identification, :is_active,
		:theme, :language, :email_notifications, :course_reminders, :loan_updates,
		:profile_visibility, :share_progress, :allow_analytics, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, toDBUser(usr)); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		u   dbUser
		err error
	)
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, filter.ID)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return u.toUser(), nil
}

func userWhere(filter user.QueryFilter) *where {
	w := new(where)
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	return w
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	w := userWhere(filter)
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM "user"` + w.String() + ` ORDER BY created_at DESC`)

	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, u := range rows {
		users = append(users, u.toUser())
	}
	return users, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int, error) {
	w := userWhere(filter)
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM "user"`+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return n, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET
		name = :name, email = :email, password_hash = :password_hash, role = :role,
		phone = :phone, address = :address, identification = :identification, is_active = :is_active,
		theme = :theme, language = :language, email_notifications = :email_notifications,
		course_reminders = :course_reminders, loan_updates = :loan_updates,
		profile_visibility = :profile_visibility, share_progress = :share_progress,
		allow_analytics = :allow_analytics, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toDBUser(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err := checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}
