package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/user"
)

type seedUser struct {
	user.User
	password string
}

func sampleUsers() []seedUser {
	return []seedUser{
		{
			User: user.User{
				Name:           "María González",
				Email:          "maria@ejemplo.com",
				Phone:          "3001234567",
				Address:        "Calle 123 #45-67, Bogotá",
				Identification: "12345678",
				Role:           user.RoleBeneficiary,
			},
			password: "password123",
		},
		{
			User: user.User{
				Name:           "Ana Rodríguez",
				Email:          "ana@ejemplo.com",
				Phone:          "3009876543",
				Address:        "Carrera 45 #78-90, Medellín",
				Identification: "87654321",
				Role:           user.RoleBeneficiary,
			},
			password: "password123",
		},
		{
			User: user.User{
				Name:           "Carlos Mendoza",
				Email:          "carlos@ejemplo.com",
				Phone:          "3005555555",
				Address:        "Calle 80 #12-34, Cali",
				Identification: "11223344",
				Role:           user.RoleMentor,
			},
			password: "password123",
		},
		{
			User: user.User{
				Name:           "Admin Sistema",
				Email:          "admin@empoderar.com",
				Phone:          "3000000000",
				Address:        "Oficina Principal",
				Identification: "00000000",
				Role:           user.RoleAdmin,
			},
			password: "admin123",
		},
	}
}

func sampleCourses() []course.Course {
	return []course.Course{
		{
			Title:        "Emprendimiento Básico",
			Description:  "Aprende los conceptos fundamentales para iniciar tu propio negocio",
			Category:     course.CategoryEntrepreneurship,
			Duration:     20,
			ContentURL:   "https://ejemplo.com/materiales/emprendimiento-basico.pdf",
			VideoURL:     "https://ejemplo.com/videos/emprendimiento-basico.mp4",
			ThumbnailURL: "https://ejemplo.com/images/emprendimiento-thumb.jpg",
			IsFree:       true,
			Level:        course.LevelBasic,
		},
		{
			Title:        "Finanzas Personales",
			Description:  "Gestiona tus finanzas personales y familiares de manera efectiva",
			Category:     course.CategoryFinance,
			Duration:     15,
			ContentURL:   "https://ejemplo.com/materiales/finanzas-personales.pdf",
			VideoURL:     "https://ejemplo.com/videos/finanzas-personales.mp4",
			ThumbnailURL: "https://ejemplo.com/images/finanzas-thumb.jpg",
			IsFree:       true,
			Level:        course.LevelBasic,
		},
		{
			Title:        "Taller de Costura",
			Description:  "Aprende técnicas básicas de costura para crear productos textiles",
			Category:     course.CategorySewing,
			Duration:     30,
			ContentURL:   "https://ejemplo.com/materiales/costura-basica.pdf",
			VideoURL:     "https://ejemplo.com/videos/costura-basica.mp4",
			ThumbnailURL: "https://ejemplo.com/images/costura-thumb.jpg",
			IsFree:       true,
			Level:        course.LevelBasic,
		},
		{
			Title:        "Marketing Digital",
			Description:  "Aprende a promocionar tu negocio en redes sociales",
			Category:     course.CategoryTechnology,
			Duration:     25,
			ContentURL:   "https://ejemplo.com/materiales/marketing-digital.pdf",
			VideoURL:     "https://ejemplo.com/videos/marketing-digital.mp4",
			ThumbnailURL: "https://ejemplo.com/images/marketing-thumb.jpg",
			IsFree:       false,
			Price:        50000,
			Level:        course.LevelIntermediate,
		},
		{
			Title:        "Liderazgo Femenino",
			Description:  "Desarrolla habilidades de liderazgo y empoderamiento",
			Category:     course.CategoryLeadership,
			Duration:     18,
			ContentURL:   "https://ejemplo.com/materiales/liderazgo-femenino.pdf",
			VideoURL:     "https://ejemplo.com/videos/liderazgo-femenino.mp4",
			ThumbnailURL: "https://ejemplo.com/images/liderazgo-thumb.jpg",
			IsFree:       true,
			Level:        course.LevelIntermediate,
		},
	}
}

// seed creates the sample users and courses. Existing emails and course titles are left untouched.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	var instructor user.User
	nUsers := 0
	for _, su := range sampleUsers() {
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: su.Email})
		switch {
		case err == nil:
		case errors.Cause(err) == user.ErrNotFound:
			usr = su.User
			usr.IsActive = true
			usr.Preferences = user.DefaultPreferences()
			usr.Privacy = user.DefaultPrivacy()
			usr.CreatedAt = now
			usr.UpdatedAt = now
			if err := usr.SetPassword(su.password); err != nil {
				return err
			}
			if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
				return errors.Wrapf(err, "creating user %s", su.Email)
			}
			nUsers++
		default:
			return err
		}
		if usr.IsMentor() && instructor.ID == "" {
			instructor = usr
		}
	}

	existing, err := cli.courseRepo.QueryCourses(ctx, course.QueryFilter{})
	if err != nil {
		return err
	}
	titles := make(map[string]bool, len(existing))
	for _, c := range existing {
		titles[c.Title] = true
	}

	nCourses := 0
	for _, c := range sampleCourses() {
		if titles[c.Title] {
			continue
		}
		c.Certification = true
		c.InstructorID = instructor.ID
		c.IsActive = true
		c.CreatedAt = now
		c.UpdatedAt = now
		if _, err := cli.courseRepo.CreateCourse(ctx, c); err != nil {
			return errors.Wrapf(err, "creating course %q", c.Title)
		}
		nCourses++
	}

	fmt.Fprintf(cli.out, "users created: %d\ncourses created: %d\n", nUsers, nCourses)
	return nil
}
