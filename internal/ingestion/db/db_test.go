package db

import (
	"context"
	"testing"
	"time"

	"github.com/rmacedo/cnpjsync/internal/ingestion/models"
	"github.com/rmacedo/cnpjsync/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err, "failed to open test database")
	return repo
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// TestUpsertInsertsNewCompanies verifies a chunk of distinct keys inserts
// one row each.
func TestUpsertInsertsNewCompanies(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	count, err := repo.UpsertCompanies(ctx, []models.Company{
		{CNPJ: "11111111", LegalName: "FIRST LTDA", State: "SP"},
		{CNPJ: "22222222", LegalName: "SECOND LTDA", State: "RJ"},
	})
	require.NoError(t, err, "UpsertCompanies should not return an error")
	assert.Equal(t, 2, count)

	stored, err := repo.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored)
}

// TestUpsertIdempotent verifies re-writing identical records leaves the
// store unchanged.
func TestUpsertIdempotent(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	records := []models.Company{
		{CNPJ: "11111111", LegalName: "FIRST LTDA", State: "SP", ShareCapital: utils.Ptr(1000.50)},
	}
	_, err := repo.UpsertCompanies(ctx, records)
	require.NoError(t, err)
	_, err = repo.UpsertCompanies(ctx, records)
	require.NoError(t, err, "re-upserting the same chunk must be safe")

	stored, err := repo.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored, "duplicate upsert must not create a second row")

	company, err := repo.GetCompany(ctx, "11111111")
	require.NoError(t, err)
	assert.Equal(t, "FIRST LTDA", company.LegalName)
	require.NotNil(t, company.ShareCapital)
	assert.Equal(t, 1000.50, *company.ShareCapital)
}

// TestUpsertReplacesWholeRow verifies a same-key upsert replaces every
// column; no stale optional fields survive.
func TestUpsertReplacesWholeRow(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	_, err := repo.UpsertCompanies(ctx, []models.Company{{
		CNPJ:         "11111111",
		LegalName:    "OLD NAME",
		State:        "SP",
		TradeName:    utils.Ptr("OLD FANTASIA"),
		ShareCapital: utils.Ptr(999.99),
		FoundingDate: date(1990, 1, 1),
	}})
	require.NoError(t, err)

	_, err = repo.UpsertCompanies(ctx, []models.Company{{
		CNPJ:      "11111111",
		LegalName: "NEW NAME",
		State:     "RJ",
	}})
	require.NoError(t, err)

	company, err := repo.GetCompany(ctx, "11111111")
	require.NoError(t, err)
	assert.Equal(t, "NEW NAME", company.LegalName)
	assert.Equal(t, "RJ", company.State)
	assert.Nil(t, company.TradeName, "stale trade name must not survive the replace")
	assert.Nil(t, company.ShareCapital, "stale capital must not survive the replace")
	assert.Nil(t, company.FoundingDate, "stale date must not survive the replace")
}

// TestUpsertLastWriteWinsWithinChunk verifies duplicate keys inside one
// chunk converge on the last occurrence.
func TestUpsertLastWriteWinsWithinChunk(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	_, err := repo.UpsertCompanies(ctx, []models.Company{
		{CNPJ: "11111111", LegalName: "FIRST OCCURRENCE", State: "SP"},
		{CNPJ: "22222222", LegalName: "OTHER", State: "MG"},
		{CNPJ: "11111111", LegalName: "LAST OCCURRENCE", State: "SP"},
	})
	require.NoError(t, err)

	stored, err := repo.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored, "two distinct identifiers should yield two rows")

	company, err := repo.GetCompany(ctx, "11111111")
	require.NoError(t, err)
	assert.Equal(t, "LAST OCCURRENCE", company.LegalName, "the last occurrence's fields should win")
}

func TestUpsertEmptyChunk(t *testing.T) {
	repo := SetupTestDB(t)

	count, err := repo.UpsertCompanies(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// TestFilterCompanies exercises the ad-hoc predicate query contract.
func TestFilterCompanies(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	_, err := repo.UpsertCompanies(ctx, []models.Company{
		{
			CNPJ: "11111111", LegalName: "PADARIA CENTRAL LTDA", State: "SP",
			TradeName: utils.Ptr("PADOCA"), ShareCapital: utils.Ptr(5000.0),
			FoundingDate: date(1999, 2, 1), SimplesOptIn: utils.Ptr(true),
		},
		{
			CNPJ: "22222222", LegalName: "TRANSPORTES RAPIDOS SA", State: "RJ",
			ShareCapital: utils.Ptr(250000.0), FoundingDate: date(2015, 6, 30),
			SimplesOptIn: utils.Ptr(false),
		},
		{
			CNPJ: "33333333", LegalName: "CENTRAL DE COMPRAS ME", State: "SP",
			ShareCapital: utils.Ptr(100.0), FoundingDate: date(2020, 3, 15),
		},
	})
	require.NoError(t, err)

	t.Run("exact cnpj", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{CNPJ: "22222222"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "TRANSPORTES RAPIDOS SA", results[0].LegalName)
	})

	t.Run("case-insensitive name substring", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{LegalName: "central"})
		require.NoError(t, err)
		assert.Len(t, results, 2, "substring match should be case-insensitive")
	})

	t.Run("trade name substring", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{TradeName: "padoca"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "11111111", results[0].CNPJ)
	})

	t.Run("capital range", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{
			CapitalMin: utils.Ptr(1000.0),
			CapitalMax: utils.Ptr(10000.0),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "11111111", results[0].CNPJ)
	})

	t.Run("founding date range", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{
			FoundedFrom:  date(2010, 1, 1),
			FoundedUntil: date(2021, 12, 31),
		})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("boolean equality", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{SimplesOptIn: utils.Ptr(true)})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "11111111", results[0].CNPJ)
	})

	t.Run("combined predicates with limit", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{State: "sp", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("no predicates returns everything", func(t *testing.T) {
		results, err := repo.FilterCompanies(ctx, models.CompanyFilter{})
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}
