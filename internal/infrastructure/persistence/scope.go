package persistence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyScope restricts a query on a company-owned table to one company.
// A nil company id matches nothing rather than everything.
func CompanyScope(companyID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if companyID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where("company_id = ?", companyID)
	}
}
