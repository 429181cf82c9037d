package db

import (
	"strings"

	dbmodels "github.com/rmacedo/cnpjsync/internal/ingestion/db/models"
	"github.com/rmacedo/cnpjsync/internal/ingestion/models"
)

func lower(s string) string {
	return strings.ToLower(s)
}

func toRow(c *models.Company) dbmodels.Company {
	return dbmodels.Company{
		CNPJ:               c.CNPJ,
		LegalName:          c.LegalName,
		TradeName:          c.TradeName,
		ShareCapital:       c.ShareCapital,
		State:              c.State,
		FoundingDate:       c.FoundingDate,
		RegistrationStatus: c.RegistrationStatus,
		StatusDate:         c.StatusDate,
		LegalNature:        c.LegalNature,
		Address:            c.Address,
		Phone:              c.Phone,
		Email:              c.Email,
		CompanySize:        c.CompanySize,
		SimplesOptIn:       c.SimplesOptIn,
		SimeiOptIn:         c.SimeiOptIn,
		SpecialStatus:      c.SpecialStatus,
		SpecialStatusDate:  c.SpecialStatusDate,
	}
}

func toCompany(row *dbmodels.Company) models.Company {
	return models.Company{
		CNPJ:               row.CNPJ,
		LegalName:          row.LegalName,
		TradeName:          row.TradeName,
		ShareCapital:       row.ShareCapital,
		State:              row.State,
		FoundingDate:       row.FoundingDate,
		RegistrationStatus: row.RegistrationStatus,
		StatusDate:         row.StatusDate,
		LegalNature:        row.LegalNature,
		Address:            row.Address,
		Phone:              row.Phone,
		Email:              row.Email,
		CompanySize:        row.CompanySize,
		SimplesOptIn:       row.SimplesOptIn,
		SimeiOptIn:         row.SimeiOptIn,
		SpecialStatus:      row.SpecialStatus,
		SpecialStatusDate:  row.SpecialStatusDate,
	}
}
