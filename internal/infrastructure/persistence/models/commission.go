// Package models contains GORM-specific persistence models for rows that
// have no domain aggregate of their own.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/commission"
)

// StoreCommissionRateModel stores a seller-tier commission override. A NULL
// column means the component is not overridden at this tier.
type StoreCommissionRateModel struct {
	StoreID    uuid.UUID        `gorm:"type:uuid;primary_key"`
	Percentage *decimal.Decimal `gorm:"type:numeric(10,4)"`
	FixedFee   *decimal.Decimal `gorm:"type:numeric(14,2)"`
	CreatedAt  time.Time        `gorm:"not null"`
	UpdatedAt  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreCommissionRateModel) TableName() string {
	return "store_commission_rates"
}

// ToDomain converts the row to a domain rate override
func (m *StoreCommissionRateModel) ToDomain() *commission.RateOverride {
	return &commission.RateOverride{
		Percentage: m.Percentage,
		FixedFee:   m.FixedFee,
	}
}

// CategoryCommissionRateModel stores a category-tier commission override
type CategoryCommissionRateModel struct {
	CategoryID uuid.UUID        `gorm:"type:uuid;primary_key"`
	Percentage *decimal.Decimal `gorm:"type:numeric(10,4)"`
	FixedFee   *decimal.Decimal `gorm:"type:numeric(14,2)"`
	CreatedAt  time.Time        `gorm:"not null"`
	UpdatedAt  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryCommissionRateModel) TableName() string {
	return "category_commission_rates"
}

// ToDomain converts the row to a domain rate override
func (m *CategoryCommissionRateModel) ToDomain() *commission.RateOverride {
	return &commission.RateOverride{
		Percentage: m.Percentage,
		FixedFee:   m.FixedFee,
	}
}
