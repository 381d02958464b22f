package dao

import (
	"context"

	"meme-radar/internal/tracker/model"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type addressDAO struct {
	db *gorm.DB
}

var _ AddressDAO = (*addressDAO)(nil)

func NewAddressDAO(db *gorm.DB) AddressDAO {
	return &addressDAO{db: db}
}

func (d *addressDAO) CreateBatch(ctx context.Context, addrs []model.PromisingAddress, batchSize int) (int, error) {
	if len(addrs) == 0 {
		return 0, nil
	}
	for i := range addrs {
		if addrs[i].ID == "" || addrs[i].AddressKey == "" {
			return 0, ErrInvalidInput
		}
		if addrs[i].RelatedTokens == nil {
			addrs[i].RelatedTokens = pq.StringArray{}
		}
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	// DO NOTHING 跳过的行不计入 RowsAffected
	tx := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address_key"}},
			DoNothing: true,
		}).
		CreateInBatches(addrs, batchSize)
	return int(tx.RowsAffected), tx.Error
}

func (d *addressDAO) UpdateRelatedTokens(ctx context.Context, id string, related []string) error {
	if related == nil {
		related = []string{}
	}
	return d.update(ctx, id, map[string]interface{}{"related_tokens": pq.StringArray(related)})
}

func (d *addressDAO) SetPromising(ctx context.Context, id string, marked bool) error {
	return d.update(ctx, id, map[string]interface{}{"is_marked_promising": marked})
}

func (d *addressDAO) update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := d.db.WithContext(ctx).
		Model(&model.PromisingAddress{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *addressDAO) GetByID(ctx context.Context, id string) (*model.PromisingAddress, error) {
	var addr model.PromisingAddress
	err := d.db.WithContext(ctx).
		Where("id = ?", id).
		First(&addr).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &addr, nil
}

func (d *addressDAO) List(ctx context.Context) ([]model.PromisingAddress, error) {
	var addrs []model.PromisingAddress
	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&addrs).Error
	return addrs, err
}

func (d *addressDAO) Delete(ctx context.Context, id string) error {
	res := d.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PromisingAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
