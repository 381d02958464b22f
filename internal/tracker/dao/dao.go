package dao

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	TokenDAO   TokenDAO
	AddressDAO AddressDAO
}

// NewDAOManager 创建DAO管理器实例
func NewDAOManager(db *gorm.DB) *DAOManager {
	return &DAOManager{
		TokenDAO:   NewTokenDAO(db),
		AddressDAO: NewAddressDAO(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
