package repository

import (
	"context"

	"gorm.io/gorm"

	"stockgpt/internal/entity"
)

// AnalysisRecordRepository persists analysis runs.
type AnalysisRecordRepository interface {
	Create(ctx context.Context, record *entity.AnalysisRecord) error
	GetLatest(ctx context.Context, symbol string, limit int) ([]entity.AnalysisRecord, error)
}

type analysisRecordRepository struct {
	db *gorm.DB
}

// NewAnalysisRecordRepository creates a new AnalysisRecordRepository.
func NewAnalysisRecordRepository(db *gorm.DB) AnalysisRecordRepository {
	return &analysisRecordRepository{db: db}
}

func (r *analysisRecordRepository) Create(ctx context.Context, record *entity.AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *analysisRecordRepository) GetLatest(ctx context.Context, symbol string, limit int) ([]entity.AnalysisRecord, error) {
	var records []entity.AnalysisRecord
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
