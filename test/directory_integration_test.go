//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	repo "github.com/ogurasousui/staff-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/platform/config"
	pg "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
)

const migrationsDir = "assets/migrations"

func TestEmployeeLifecycleIntegration(t *testing.T) {
	t.Parallel()

	cfgPath := configPathFromEnv()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	employeeRepo := repo.NewEmployeeRepository(pool)
	svc := directory.NewService(employeeRepo, nil, pg.NewTransactionManager(pool), directory.Collaborators{})

	created, err := svc.CreateEmployee(ctx, directory.CreateEmployeeInput{
		Name:       "Integration Taro",
		Email:      "integration@example.com",
		Department: "Engineering",
		SkillNames: []string{"Go", "PostgreSQL"},
	})
	if err != nil {
		t.Fatalf("CreateEmployee error: %v", err)
	}
	if len(created.Skills) != 2 {
		t.Fatalf("expected 2 skills, got %v", created.Skills)
	}

	found, err := svc.GetEmployee(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEmployee error: %v", err)
	}
	if found.Email != created.Email {
		t.Fatalf("expected email %s, got %s", created.Email, found.Email)
	}

	education, err := svc.AddEducation(ctx, directory.AddEducationInput{
		EmployeeID:  created.ID,
		StartYear:   2010,
		EndYear:     2014,
		Institution: "Tokyo University",
		Degree:      "Bachelor",
	})
	if err != nil {
		t.Fatalf("AddEducation error: %v", err)
	}

	if _, err := svc.AddReview(ctx, directory.AddReviewInput{EmployeeID: created.ID, Rating: 4, Comment: "solid"}); err != nil {
		t.Fatalf("AddReview error: %v", err)
	}

	result, err := svc.ListEmployees(ctx, directory.ListEmployeesInput{Department: "engineering", PageSize: 10})
	if err != nil {
		t.Fatalf("ListEmployees error: %v", err)
	}
	if result.TotalCount != 1 {
		t.Fatalf("expected total 1, got %d", result.TotalCount)
	}

	actor := "admin@example.com"
	archived, err := svc.ArchiveEmployee(ctx, created.ID, &actor)
	if err != nil {
		t.Fatalf("ArchiveEmployee error: %v", err)
	}
	if archived.State != directory.StateArchived || archived.DeletedAt == nil {
		t.Fatalf("archive not applied: %+v", archived)
	}

	if _, err := svc.GetEmployee(ctx, created.ID); !errors.Is(err, directory.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound for archived employee, got %v", err)
	}

	restored, err := svc.RestoreEmployee(ctx, created.ID)
	if err != nil {
		t.Fatalf("RestoreEmployee error: %v", err)
	}
	if restored.State != directory.StateActive || restored.DeletedAt != nil {
		t.Fatalf("restore not applied: %+v", restored)
	}

	if _, err := svc.ArchiveEmployee(ctx, created.ID, nil); err != nil {
		t.Fatalf("ArchiveEmployee error: %v", err)
	}
	if err := svc.PurgeEmployee(ctx, created.ID); err != nil {
		t.Fatalf("PurgeEmployee error: %v", err)
	}

	if _, err := svc.GetArchivedEmployee(ctx, created.ID); !errors.Is(err, directory.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound after purge, got %v", err)
	}

	educations, err := svc.ListEducations(ctx, education.EmployeeID)
	if err != nil {
		t.Fatalf("ListEducations error: %v", err)
	}
	if len(educations) != 0 {
		t.Fatalf("expected educations to cascade on purge, got %+v", educations)
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "assets/local.yaml"
}
