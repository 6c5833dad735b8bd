package repository

import (
	"context"
	"errors"
	"fmt"

	"video-coords/server/internal/ledger"
	"video-coords/server/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// uniqueViolation is the postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// ClickStore keeps ledgers in postgres.
type ClickStore struct {
	db *gorm.DB
}

func NewClickStore(db *gorm.DB) *ClickStore {
	return &ClickStore{db: db}
}

func (s *ClickStore) Mount(ctx context.Context, id ledger.Identity, sourceDigest string) ([]models.ClickEvent, error) {
	var events []models.ClickEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mount models.ComponentMount
		err := tx.Where("viewer = ? AND component_key = ?", id.Viewer, id.Key).First(&mount).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.ComponentMount{
				Viewer:       id.Viewer,
				ComponentKey: id.Key,
				SourceDigest: sourceDigest,
			}).Error
		case err != nil:
			return err
		}

		if mount.SourceDigest != sourceDigest {
			if err := tx.Where("viewer = ? AND component_key = ?", id.Viewer, id.Key).Delete(&models.ClickRecord{}).Error; err != nil {
				return err
			}
			return tx.Model(&models.ComponentMount{}).
				Where("viewer = ? AND component_key = ?", id.Viewer, id.Key).
				Update("source_digest", sourceDigest).Error
		}

		var records []models.ClickRecord
		if err := tx.Where("viewer = ? AND component_key = ?", id.Viewer, id.Key).Order("seq").Find(&records).Error; err != nil {
			return err
		}
		events = make([]models.ClickEvent, 0, len(records))
		for _, r := range records {
			events = append(events, r.Event())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mount ledger %s: %w", id, err)
	}
	return events, nil
}

func (s *ClickStore) Append(ctx context.Context, id ledger.Identity, seq int, e models.ClickEvent) error {
	record := models.NewClickRecord(id.Viewer, id.Key, seq, e)
	err := s.db.WithContext(ctx).Create(&record).Error

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &ledger.SequenceError{ID: id, Want: -1, Got: seq}
	}
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

func (s *ClickStore) Delete(ctx context.Context, id ledger.Identity) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("viewer = ? AND component_key = ?", id.Viewer, id.Key).Delete(&models.ClickRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("viewer = ? AND component_key = ?", id.Viewer, id.Key).Delete(&models.ComponentMount{}).Error
	})
}
