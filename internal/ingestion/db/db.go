// Package db implements the persistent store contract: chunked upsert by
// CNPJ and the read-only filter queries the record-browsing tooling relies
// on.
package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/rmacedo/cnpjsync/internal/ingestion/db/models"
	e "github.com/rmacedo/cnpjsync/internal/ingestion/errors"
	"github.com/rmacedo/cnpjsync/internal/ingestion/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize bounds the number of rows per INSERT statement inside a
// chunk transaction.
const insertBatchSize = 1000

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&dbmodels.Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewSQLiteRepository opens a SQLite-backed store, used for local runs and
// tests. Pass ":memory:" for an ephemeral database.
func NewSQLiteRepository(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&dbmodels.Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// UpsertCompanies writes one chunk of records with merge-by-CNPJ semantics:
// insert when absent, otherwise replace every column. The whole chunk
// commits as one transaction, so re-running a chunk after a crash converges
// to the same rows. Returns the number of records applied.
func (r *Repository) UpsertCompanies(ctx context.Context, records []models.Company) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// A key may repeat within one chunk; a single INSERT cannot touch the
	// same row twice, so collapse duplicates keeping the last occurrence.
	rows := make([]dbmodels.Company, 0, len(records))
	index := make(map[string]int, len(records))
	for i := range records {
		row := toRow(&records[i])
		if at, seen := index[row.CNPJ]; seen {
			rows[at] = row
			continue
		}
		index[row.CNPJ] = len(rows)
		rows = append(rows, row)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cnpj"}},
			UpdateAll: true,
		}).CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return len(records), nil
}

// GetCompany retrieves one company by its CNPJ.
func (r *Repository) GetCompany(ctx context.Context, cnpj string) (*models.Company, error) {
	var row dbmodels.Company
	result := r.db.WithContext(ctx).First(&row, "cnpj = ?", cnpj)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	company := toCompany(&row)
	return &company, nil
}

// FilterCompanies runs the ad-hoc predicate query contract: exact match,
// case-insensitive substring, numeric range, date range, and boolean
// equality. Unset filter fields apply no predicate.
func (r *Repository) FilterCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	query := r.db.WithContext(ctx).Model(&dbmodels.Company{})

	if filter.CNPJ != "" {
		query = query.Where("cnpj = ?", filter.CNPJ)
	}
	if filter.LegalName != "" {
		query = query.Where("LOWER(legal_name) LIKE ?", "%"+lower(filter.LegalName)+"%")
	}
	if filter.TradeName != "" {
		query = query.Where("LOWER(trade_name) LIKE ?", "%"+lower(filter.TradeName)+"%")
	}
	if filter.CapitalMin != nil {
		query = query.Where("share_capital >= ?", *filter.CapitalMin)
	}
	if filter.CapitalMax != nil {
		query = query.Where("share_capital <= ?", *filter.CapitalMax)
	}
	if filter.State != "" {
		query = query.Where("LOWER(state) = ?", lower(filter.State))
	}
	if filter.FoundedFrom != nil {
		query = query.Where("founding_date >= ?", *filter.FoundedFrom)
	}
	if filter.FoundedUntil != nil {
		query = query.Where("founding_date <= ?", *filter.FoundedUntil)
	}
	if filter.SimplesOptIn != nil {
		query = query.Where("simples_opt_in = ?", *filter.SimplesOptIn)
	}
	if filter.SimeiOptIn != nil {
		query = query.Where("simei_opt_in = ?", *filter.SimeiOptIn)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []dbmodels.Company
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to filter companies: %w", err)
	}

	companies := make([]models.Company, len(rows))
	for i := range rows {
		companies[i] = toCompany(&rows[i])
	}
	return companies, nil
}

// CountCompanies returns the number of stored companies.
func (r *Repository) CountCompanies(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Company{}).Count(&count)
	return count, result.Error
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
