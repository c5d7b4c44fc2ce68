package service

import (
	"context"
	"database/sql"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/database"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) (model.HealthStatus, error) {
	if err := database.HealthCheck(ctx, s.db); err != nil {
		return model.HealthStatus{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		}, err
	}

	version, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.HealthStatus{
			Status:   "unhealthy",
			Database: "connected",
			Error:    err.Error(),
		}, err
	}

	return model.HealthStatus{
		Status:        "healthy",
		Database:      "connected",
		SchemaVersion: version,
	}, nil
}
