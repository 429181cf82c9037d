// Package models contains the persistence model for the application,
// configured to work using GORM as the ORM.
package models

import (
	"time"
)

// Company represents a company registry row in the database. The basic CNPJ
// identifier is the primary key; the store enforces its uniqueness under
// repeated upserts. Nullable columns are pointer fields.
type Company struct {
	CNPJ         string     `gorm:"column:cnpj;size:14;primaryKey"`
	LegalName    string     `gorm:"column:legal_name;size:150"`
	TradeName    *string    `gorm:"column:trade_name;size:150"`
	ShareCapital *float64   `gorm:"column:share_capital"`
	State        string     `gorm:"column:state;size:2"`
	FoundingDate *time.Time `gorm:"column:founding_date"`

	RegistrationStatus *string    `gorm:"column:registration_status;size:50"`
	StatusDate         *time.Time `gorm:"column:status_date"`
	LegalNature        *string    `gorm:"column:legal_nature;size:10"`
	Address            *string    `gorm:"column:address;size:255"`
	Phone              *string    `gorm:"column:phone;size:20"`
	Email              *string    `gorm:"column:email;size:100"`
	CompanySize        *string    `gorm:"column:company_size;size:50"`
	SimplesOptIn       *bool      `gorm:"column:simples_opt_in"`
	SimeiOptIn         *bool      `gorm:"column:simei_opt_in"`
	SpecialStatus      *string    `gorm:"column:special_status;size:100"`
	SpecialStatusDate  *time.Time `gorm:"column:special_status_date"`
}

// TableName overrides the default table name.
func (Company) TableName() string {
	return "companies"
}
