package repository

import (
	"errors"

	"go-posledger-ws/internal/apperr"
	"go-posledger-ws/internal/model"

	"gorm.io/gorm"
)

// CompanyRepository provides the single company configuration row the
// settlement engine consults (invoice prefix, default tax, overpayment
// policy).
type CompanyRepository interface {
	Get() (*model.CompanyConfig, error)
	Save(cfg *model.CompanyConfig) error
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) Get() (*model.CompanyConfig, error) {
	var cfg model.CompanyConfig
	err := r.db.Order("created_at ASC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	return &cfg, err
}

func (r *companyRepo) Save(cfg *model.CompanyConfig) error {
	return r.db.Save(cfg).Error
}
