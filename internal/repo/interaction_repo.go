// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Interaction model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-llm-usage/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateInteraction inserts a completed interaction row. The record is
// written exactly once, after the provider call attempt finished; it is
// never updated afterward. A zero Timestamp is set to the current UTC time
// so the stored time axis is uniform.
func CreateInteraction(ctx context.Context, db *gorm.DB, rec *domain.Interaction) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(rec).Error
}

// GetInteraction fetches a single interaction by ID, or ErrNotFound.
func GetInteraction(ctx context.Context, db *gorm.DB, id uint) (*domain.Interaction, error) {
	var rec domain.Interaction
	if err := db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountInteractions returns the total number of interactions for pagination.
func CountInteractions(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Interaction{}).Count(&n).Error
	return n, err
}

// ListInteractionsPage returns a page of interactions, most recent first.
// Ties on timestamp fall back to descending ID so pagination is stable.
func ListInteractionsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Interaction, error) {
	var recs []domain.Interaction
	err := db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
