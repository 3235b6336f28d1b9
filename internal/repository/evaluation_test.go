package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/prushi369-byte/uspstf-screening/internal/database"
	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// generateTestPassword creates a secure random password for test databases
func generateTestPassword() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a default test password if random generation fails
		return "test_fallback_password_123"
	}
	return "test_" + hex.EncodeToString(bytes)
}

func setupTestDB(t *testing.T) (*database.DB, func()) {
	if os.Getenv("TEST_CONTAINERS") == "" {
		t.Skip("TEST_CONTAINERS not set, skipping container-backed tests")
	}

	ctx := context.Background()

	// Generate secure random password for test database
	testPassword := generateTestPassword()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	// Get connection details
	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create database connection
	config := database.Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "testdb",
		Username:    "testuser",
		Password:    testPassword,
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: time.Minute * 30,
		SSLMode:     "disable",
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(ctx, config, logger)
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}

	// Run migrations
	databaseURL := "postgres://testuser:" + testPassword + "@" + host + ":" + port.Port() + "/testdb?sslmode=disable"
	migrationRunner, err := database.NewMigrationRunner(databaseURL, "../../migrations", logger)
	if err != nil {
		t.Fatalf("Failed to create migration runner: %v", err)
	}

	if err := migrationRunner.Up(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		migrationRunner.Close()
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}

	return db, cleanup
}

func testRecord() *domain.EvaluationRecord {
	return &domain.EvaluationRecord{
		ID: uuid.New().String(),
		Profile: domain.PatientProfile{
			Age:              55,
			Sex:              domain.FEMALE,
			SmokingStatus:    domain.CURRENT_SMOKER,
			CigarettesPerDay: 20,
			YearsSmoked:      30,
		},
		PackYears: 30,
		Recommendations: []domain.Recommendation{
			{
				Name:     "Lung Cancer",
				Test:     "Low-dose CT",
				Interval: "every year",
				Grade:    domain.GRADE_B,
				Notes:    "20+ pack-year history",
			},
			{
				Name:     "Breast Cancer",
				Test:     "Mammography",
				Interval: "every 2 years",
				Grade:    domain.GRADE_B,
			},
		},
		MatchedTopics: []string{"Lung Cancer", "Breast Cancer"},
		MatchedCount:  2,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestEvaluationRepository_SaveAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewEvaluationRepository(db.Pool, logger)

	record := testRecord()

	ctx := context.Background()
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Failed to save evaluation record: %v", err)
	}

	retrieved, err := repo.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve evaluation record: %v", err)
	}

	if retrieved.ID != record.ID {
		t.Errorf("Expected ID %s, got %s", record.ID, retrieved.ID)
	}
	if retrieved.Profile.Age != 55 {
		t.Errorf("Expected profile age 55, got %d", retrieved.Profile.Age)
	}
	if retrieved.PackYears != 30 {
		t.Errorf("Expected 30 pack-years, got %f", retrieved.PackYears)
	}
	if len(retrieved.Recommendations) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(retrieved.Recommendations))
	}
	if retrieved.Recommendations[0].Name != "Lung Cancer" {
		t.Errorf("Expected first recommendation Lung Cancer, got %s", retrieved.Recommendations[0].Name)
	}
	if retrieved.MatchedCount != 2 {
		t.Errorf("Expected matched count 2, got %d", retrieved.MatchedCount)
	}
}

func TestEvaluationRepository_Get_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewEvaluationRepository(db.Pool, logger)

	_, err := repo.Get(context.Background(), uuid.New().String())
	if err == nil {
		t.Fatal("Expected error for missing record, got nil")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestEvaluationRepository_List(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewEvaluationRepository(db.Pool, logger)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		record := testRecord()
		record.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("Failed to save evaluation record %d: %v", i, err)
		}
	}

	records, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list evaluation records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	// Newest first
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Errorf("Records not ordered newest first at index %d", i)
		}
	}

	page, err := repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("Failed to list second page: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("Expected 1 record on second page, got %d", len(page))
	}
}

func TestEvaluationRepository_Count(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewEvaluationRepository(db.Pool, logger)

	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count evaluation records: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 records, got %d", count)
	}

	if err := repo.Save(ctx, testRecord()); err != nil {
		t.Fatalf("Failed to save evaluation record: %v", err)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count evaluation records: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
}

func TestEvaluationRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewEvaluationRepository(db.Pool, logger)

	ctx := context.Background()
	record := testRecord()
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Failed to save evaluation record: %v", err)
	}

	if err := repo.Delete(ctx, record.ID); err != nil {
		t.Fatalf("Failed to delete evaluation record: %v", err)
	}

	if _, err := repo.Get(ctx, record.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again reports not found
	if err := repo.Delete(ctx, record.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}
