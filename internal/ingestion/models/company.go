// Package models defines the core domain models for the ingestion pipeline:
// the canonical Company record produced by the decoder and the CompanyFilter
// query object consumed by the repository's read contract.
package models

import (
	"time"
)

// Company is the canonical record for one company registry entry, keyed by
// the basic CNPJ identifier. Pointer fields are optional: a nil value means
// the source column was absent in the dataset variant or failed coercion.
type Company struct {
	// CNPJ is the basic (8-digit) national business identifier, primary key.
	CNPJ string
	// LegalName is the registered company name.
	LegalName string
	// TradeName is the fantasy name. Absent in the minimal dataset variant.
	TradeName *string
	// ShareCapital is the declared capital. The source uses a comma decimal
	// separator; nil when empty or unparsable.
	ShareCapital *float64
	// State is the two-letter state code.
	State string
	// FoundingDate is the registration opening date (DD/MM/YYYY in source).
	FoundingDate *time.Time

	// Extension fields, populated only by the extended dataset variant.
	RegistrationStatus *string
	StatusDate         *time.Time
	LegalNature        *string
	Address            *string
	Phone              *string
	Email              *string
	CompanySize        *string
	SimplesOptIn       *bool
	SimeiOptIn         *bool
	SpecialStatus      *string
	SpecialStatusDate  *time.Time
}

// CompanyFilter describes a read query over stored companies. Zero values
// (nil pointers, empty strings) mean the predicate is not applied.
type CompanyFilter struct {
	// CNPJ matches exactly.
	CNPJ string
	// LegalName and TradeName match as case-insensitive substrings.
	LegalName string
	TradeName string
	// CapitalMin and CapitalMax bound ShareCapital inclusively.
	CapitalMin *float64
	CapitalMax *float64
	// State matches exactly, case-insensitive.
	State string
	// FoundedFrom and FoundedUntil bound FoundingDate inclusively.
	FoundedFrom  *time.Time
	FoundedUntil *time.Time
	// SimplesOptIn and SimeiOptIn match boolean equality.
	SimplesOptIn *bool
	SimeiOptIn   *bool
	// Limit caps the result size; 0 means no cap.
	Limit int
}
