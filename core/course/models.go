package course

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/empoderar/core"
)

// Categories
const (
	CategoryEntrepreneurship = "emprendimiento"
	CategoryFinance          = "finanzas"
	CategorySewing           = "costura"
	CategoryCooking          = "cocina"
	CategoryTechnology       = "tecnologia"
	CategoryLeadership       = "liderazgo"
	CategoryOther            = "otros"
)

// Levels
const (
	LevelBasic        = "basico"
	LevelIntermediate = "intermedio"
	LevelAdvanced     = "avanzado"
)

// MaxProgress is the progress of a completed enrollment.
const MaxProgress = 100

var (
	AllCategories = []string{
		CategoryEntrepreneurship,
		CategoryFinance,
		CategorySewing,
		CategoryCooking,
		CategoryTechnology,
		CategoryLeadership,
		CategoryOther,
	}
	AllLevels = []string{LevelBasic, LevelIntermediate, LevelAdvanced}
)

type Course struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Duration      float64   `json:"duration"` // hours
	ContentURL    string    `json:"contentUrl"`
	VideoURL      string    `json:"videoUrl"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	IsFree        bool      `json:"isFree"`
	Price         float64   `json:"price"`
	Certification bool      `json:"certification"`
	Level         string    `json:"level"`
	InstructorID  string    `json:"instructorId"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
	UpdatedAt     time.Time `json:"updatedAt"` // UTC
}

// Hours returns the duration rounded to whole hours.
func (c Course) Hours() int {
	return int(math.Round(c.Duration))
}

// Enrollment links a User to a Course. Zero times mean "not yet".
type Enrollment struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	CourseID       string    `json:"courseId"`
	Progress       float64   `json:"progress"`
	Completed      bool      `json:"completed"`
	EnrolledAt     time.Time `json:"enrolledAt"`
	CompletedAt    time.Time `json:"completedAt"`
	CertifiedAt    time.Time `json:"certifiedAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	Notes          string    `json:"notes"`
}

type NewCourse struct {
	Title         string   `json:"title" validate:"required,notblank"`
	Description   string   `json:"description"`
	Category      string   `json:"category" validate:"category"`
	Duration      float64  `json:"duration" validate:"gte=1"`
	ContentURL    string   `json:"contentUrl" validate:"omitempty,url"`
	VideoURL      string   `json:"videoUrl" validate:"omitempty,url"`
	ThumbnailURL  string   `json:"thumbnailUrl" validate:"omitempty,url"`
	IsFree        *bool    `json:"isFree"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	Certification *bool    `json:"certification"`
	Level         string   `json:"level" validate:"level"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category, true /* lower */)
	nc.ContentURL = core.CleanString(nc.ContentURL)
	nc.VideoURL = core.CleanString(nc.VideoURL)
	nc.ThumbnailURL = core.CleanString(nc.ThumbnailURL)
	nc.Level = core.CleanString(nc.Level, true /* lower */)
	if nc.Category == "" {
		nc.Category = CategoryOther
	}
	if nc.Level == "" {
		nc.Level = LevelBasic
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// nil fields are left untouched.
type UpdateCourse struct {
	Title         *string  `json:"title" validate:"omitempty,notblank"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category" validate:"omitempty,category"`
	Duration      *float64 `json:"duration" validate:"omitempty,gte=1"`
	ContentURL    *string  `json:"contentUrl" validate:"omitempty,url"`
	VideoURL      *string  `json:"videoUrl" validate:"omitempty,url"`
	ThumbnailURL  *string  `json:"thumbnailUrl" validate:"omitempty,url"`
	IsFree        *bool    `json:"isFree"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	Certification *bool    `json:"certification"`
	Level         *string  `json:"level" validate:"omitempty,level"`
	IsActive      *bool    `json:"isActive"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanStringPtr(uc.Title)
	uc.Description = core.CleanStringPtr(uc.Description)
	uc.Category = core.CleanStringPtr(uc.Category, true /* lower */)
	uc.ContentURL = core.CleanStringPtr(uc.ContentURL)
	uc.VideoURL = core.CleanStringPtr(uc.VideoURL)
	uc.ThumbnailURL = core.CleanStringPtr(uc.ThumbnailURL)
	uc.Level = core.CleanStringPtr(uc.Level, true /* lower */)
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c *Course) {
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Category != nil {
		c.Category = *uc.Category
	}
	if uc.Duration != nil {
		c.Duration = *uc.Duration
	}
	if uc.ContentURL != nil {
		c.ContentURL = *uc.ContentURL
	}
	if uc.VideoURL != nil {
		c.VideoURL = *uc.VideoURL
	}
	if uc.ThumbnailURL != nil {
		c.ThumbnailURL = *uc.ThumbnailURL
	}
	if uc.IsFree != nil {
		c.IsFree = *uc.IsFree
	}
	if uc.Price != nil {
		c.Price = *uc.Price
	}
	if uc.Certification != nil {
		c.Certification = *uc.Certification
	}
	if uc.Level != nil {
		c.Level = *uc.Level
	}
	if uc.IsActive != nil {
		c.IsActive = *uc.IsActive
	}
}

type QueryFilter struct {
	Category string
	Level    string
	IsActive *bool
}

// EnrollmentFilter selects enrollments; every set field must match.
type EnrollmentFilter struct {
	UserID    string
	CourseID  string
	Completed *bool
}
