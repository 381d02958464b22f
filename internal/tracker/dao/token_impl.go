package dao

import (
	"context"
	"time"

	"meme-radar/internal/tracker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tokenDAO struct {
	db *gorm.DB
}

var _ TokenDAO = (*tokenDAO)(nil)

func NewTokenDAO(db *gorm.DB) TokenDAO {
	return &tokenDAO{db: db}
}

func (d *tokenDAO) Create(ctx context.Context, token *model.TokenConfig) error {
	if token == nil || token.ID == "" {
		return ErrInvalidInput
	}
	return d.db.WithContext(ctx).Create(token).Error
}

func (d *tokenDAO) Upsert(ctx context.Context, token *model.TokenConfig) error {
	if token == nil || token.ID == "" {
		return ErrInvalidInput
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"symbol", "address", "chain", "start_time", "end_time",
			"market_cap_limit", "buyers_count", "buyers_last_updated", "updated_at",
		}),
	}).Create(token).Error
}

func (d *tokenDAO) GetByID(ctx context.Context, id string) (*model.TokenConfig, error) {
	var token model.TokenConfig
	err := d.db.WithContext(ctx).
		Where("id = ?", id).
		First(&token).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (d *tokenDAO) List(ctx context.Context) ([]model.TokenConfig, error) {
	var tokens []model.TokenConfig
	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

func (d *tokenDAO) UpdateBuyerStats(ctx context.Context, id string, count int, at time.Time) error {
	res := d.db.WithContext(ctx).
		Model(&model.TokenConfig{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"buyers_count":        count,
			"buyers_last_updated": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *tokenDAO) Delete(ctx context.Context, id string) error {
	res := d.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TokenConfig{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
