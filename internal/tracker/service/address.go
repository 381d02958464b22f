package service

import (
	"context"

	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/model"

	"go.uber.org/zap"
)

// AddressPage 过滤后的一页，Total 是分页前的数量
type AddressPage struct {
	Items []model.PromisingAddress `json:"items"`
	Total int                      `json:"total"`
}

type AddressService struct {
	addrs    dao.AddressDAO
	notifier Notifier
	logger   *zap.Logger
}

func NewAddressService(addrs dao.AddressDAO, notifier Notifier, logger *zap.Logger) *AddressService {
	return &AddressService{
		addrs:    addrs,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "address_service")),
	}
}

func (s *AddressService) ListAddresses(ctx context.Context, q ViewQuery) (*AddressPage, error) {
	if !ValidPromisingFilter(q.Promising) {
		return nil, validationError("promising must be marked or unmarked")
	}
	all, err := s.addrs.List(ctx)
	if err != nil {
		return nil, err
	}
	unpaged := View(all, ViewQuery{TokenIDs: q.TokenIDs, Search: q.Search, Promising: q.Promising})
	return &AddressPage{
		Items: View(unpaged, ViewQuery{Limit: q.Limit, Offset: q.Offset}),
		Total: len(unpaged),
	}, nil
}

func (s *AddressService) Stats(ctx context.Context) (model.AddressStats, error) {
	all, err := s.addrs.List(ctx)
	if err != nil {
		return model.AddressStats{}, err
	}
	return Stats(all), nil
}

// TogglePromising 翻转 isMarkedPromising
func (s *AddressService) TogglePromising(ctx context.Context, id string) (*model.PromisingAddress, error) {
	rec, err := s.addrs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.IsMarkedPromising = !rec.IsMarkedPromising
	if err := s.addrs.SetPromising(ctx, id, rec.IsMarkedPromising); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, model.CollectionAddresses)
	return rec, nil
}

func (s *AddressService) DeleteAddress(ctx context.Context, id string) error {
	if err := s.addrs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("address deleted", zap.String("id", id))
	s.notifier.Notify(ctx, model.CollectionAddresses)
	return nil
}
