package config

import (
	"errors"
	"os"
	"strings"
)

// AdminSeed is the account cmd/seed creates or promotes.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// LoadAdminSeed reads ADMIN_EMAIL and ADMIN_PASSWORD (both required) and
// ADMIN_NAME (default "Admin").
func LoadAdminSeed() (AdminSeed, error) {
	s := AdminSeed{
		Name:     getenv("ADMIN_NAME", "Admin"),
		Email:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
	var errs []error
	if s.Email == "" {
		errs = append(errs, errors.New("missing required env: ADMIN_EMAIL"))
	}
	if len(s.Password) < 6 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 6 characters"))
	}
	if len(s.Password) > 72 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at most 72 bytes"))
	}
	return s, errors.Join(errs...)
}
