package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/internal/repository"
	"github.com/noah-isme/event-idea-marketplace/pkg/config"
	"github.com/noah-isme/event-idea-marketplace/pkg/database"
	"github.com/noah-isme/event-idea-marketplace/pkg/logger"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type hallStore interface {
	ListActive(ctx context.Context) ([]models.Hall, error)
	Create(ctx context.Context, hall *models.Hall) error
}

type seedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type seedResult struct {
	AdminCreated bool
	HallsCreated int
}

var defaultHalls = []models.Hall{
	{Name: "Main Auditorium", SeatingCapacity: 500, Location: "Central Block", Facilities: "Stage, projector, sound system"},
	{Name: "Seminar Hall A", SeatingCapacity: 150, Location: "Academic Block 1", Facilities: "Projector, microphones"},
	{Name: "Seminar Hall B", SeatingCapacity: 120, Location: "Academic Block 2", Facilities: "Projector, whiteboard"},
	{Name: "Innovation Lab", SeatingCapacity: 60, Location: "Library Annex", Facilities: "Workstations, Wi-Fi"},
	{Name: "Open Air Theatre", SeatingCapacity: 800, Location: "Campus Grounds", Facilities: "Outdoor stage, lighting"},
}

func main() {
	var opts seedOptions
	flag.StringVar(&opts.AdminName, "admin-name", "Platform Admin", "Initial super admin display name")
	flag.StringVar(&opts.AdminEmail, "admin-email", "admin@example.edu", "Initial super admin email")
	flag.StringVar(&opts.AdminPassword, "admin-password", "", "Initial super admin password (required)")
	flag.Parse()

	if opts.AdminPassword == "" {
		log.Fatal("-admin-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("database migration failed", zap.Error(err))
	}

	result, err := seed(ctx, repository.NewUserRepository(db), repository.NewHallRepository(db), opts)
	if err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
	logr.Info("seed finished", zap.Bool("admin_created", result.AdminCreated), zap.Int("halls_created", result.HallsCreated))
}

// seed is safe to rerun: existing admins and halls with the same name are left alone.
func seed(ctx context.Context, users userStore, halls hallStore, opts seedOptions) (seedResult, error) {
	var result seedResult

	existing, err := users.FindByEmail(ctx, opts.AdminEmail)
	switch {
	case err == nil && existing != nil:
		if existing.Role != models.RoleSuperAdmin {
			return result, fmt.Errorf("%s already exists with role %s", opts.AdminEmail, existing.Role)
		}
	case err == nil, errors.Is(err, sql.ErrNoRows):
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return result, fmt.Errorf("hash admin password: %w", err)
		}
		admin := &models.User{
			Name:         opts.AdminName,
			Email:        strings.ToLower(strings.TrimSpace(opts.AdminEmail)),
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
			IsActive:     true,
		}
		if err := users.Create(ctx, admin); err != nil {
			return result, err
		}
		result.AdminCreated = true
	default:
		return result, err
	}

	current, err := halls.ListActive(ctx)
	if err != nil {
		return result, err
	}
	known := make(map[string]struct{}, len(current))
	for _, h := range current {
		known[strings.ToLower(h.Name)] = struct{}{}
	}
	for _, h := range defaultHalls {
		if _, ok := known[strings.ToLower(h.Name)]; ok {
			continue
		}
		hall := h
		hall.IsActive = true
		if err := halls.Create(ctx, &hall); err != nil {
			return result, err
		}
		result.HallsCreated++
	}
	return result, nil
}
