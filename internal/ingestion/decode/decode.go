// Package decode streams the semicolon-delimited dataset files and maps raw
// rows to canonical Company records. Files are read in bounded-size chunks
// to keep peak memory flat regardless of file size.
//
// Coercion policy: a field that fails to parse becomes nil. No row is ever
// rejected for a bad field; only a file-level read error aborts decoding.
package decode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	e "github.com/rmacedo/cnpjsync/internal/ingestion/errors"
	"github.com/rmacedo/cnpjsync/internal/ingestion/models"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Format selects the dataset schema variant.
type Format int

const (
	// FormatMinimal is the published company file: seven positional
	// columns, no header row.
	FormatMinimal Format = iota
	// FormatExtended is the richer variant with a header row naming every
	// column, including the optional extension fields.
	FormatExtended
)

// Positional layout of the minimal variant.
const (
	minColCNPJ         = 0
	minColLegalName    = 1
	minColShareCapital = 4
	minColState        = 5
	minColFoundingDate = 6
)

// dateLayout is the single accepted date pattern (DD/MM/YYYY).
const dateLayout = "02/01/2006"

// Decoder streams one dataset file at a time. The produced chunk sequence
// is lazy, finite, and not restartable.
type Decoder struct {
	chunkSize int
	format    Format
	logger    *zap.Logger
}

// NewDecoder constructs a Decoder producing chunks of at most chunkSize
// records.
func NewDecoder(chunkSize int, format Format, logger *zap.Logger) *Decoder {
	return &Decoder{
		chunkSize: chunkSize,
		format:    format,
		logger:    logger.Named("decoder"),
	}
}

// Decode reads the file at path and invokes fn once per chunk, in file
// order. The source encoding is fixed ISO-8859-1. A read error aborts the
// whole file with ErrDecode; an error returned by fn aborts with that error.
func (d *Decoder) Decode(path string, fn func(chunk []models.Company) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", e.ErrDecode, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var header headerIndex
	if d.format == FormatExtended {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: reading header of %s: %v", e.ErrDecode, path, err)
		}
		header = indexHeader(row)
	}

	chunk := make([]models.Company, 0, d.chunkSize)
	rows := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %s row %d: %v", e.ErrDecode, path, rows+1, err)
		}
		rows++

		chunk = append(chunk, d.normalize(row, header))
		if len(chunk) == d.chunkSize {
			if err := fn(chunk); err != nil {
				return err
			}
			chunk = make([]models.Company, 0, d.chunkSize)
		}
	}
	if len(chunk) > 0 {
		if err := fn(chunk); err != nil {
			return err
		}
	}

	d.logger.Info("file decoded", zap.String("path", path), zap.Int("rows", rows))
	return nil
}

func (d *Decoder) normalize(row []string, header headerIndex) models.Company {
	if d.format == FormatExtended {
		return normalizeExtended(row, header)
	}
	return normalizeMinimal(row)
}

func normalizeMinimal(row []string) models.Company {
	get := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return cleanField(row[i])
	}
	return models.Company{
		CNPJ:         get(minColCNPJ),
		LegalName:    get(minColLegalName),
		ShareCapital: parseDecimal(get(minColShareCapital)),
		State:        get(minColState),
		FoundingDate: parseDate(get(minColFoundingDate)),
	}
}

// headerIndex maps a lowercased column name to its position, built once per
// file for the extended variant.
type headerIndex map[string]int

func indexHeader(row []string) headerIndex {
	idx := make(headerIndex, len(row))
	for i, name := range row {
		idx[strings.ToLower(cleanField(name))] = i
	}
	return idx
}

func (h headerIndex) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return cleanField(row[i])
}

func normalizeExtended(row []string, h headerIndex) models.Company {
	return models.Company{
		CNPJ:               h.get(row, "cnpj"),
		LegalName:          h.get(row, "nome_empresarial"),
		TradeName:          optString(h.get(row, "nome_fantasia")),
		ShareCapital:       parseDecimal(h.get(row, "capital_social")),
		State:              h.get(row, "uf"),
		FoundingDate:       parseDate(h.get(row, "data_abertura")),
		RegistrationStatus: optString(h.get(row, "situacao_cadastral")),
		StatusDate:         parseDate(h.get(row, "data_situacao_cadastral")),
		LegalNature:        optString(h.get(row, "natureza_juridica")),
		Address:            optString(h.get(row, "endereco")),
		Phone:              optString(h.get(row, "telefone")),
		Email:              optString(h.get(row, "email")),
		CompanySize:        optString(h.get(row, "porte")),
		SimplesOptIn:       parseBool(h.get(row, "opcao_simples_nacional")),
		SimeiOptIn:         parseBool(h.get(row, "opcao_simei")),
		SpecialStatus:      optString(h.get(row, "situacao_especial")),
		SpecialStatusDate:  parseDate(h.get(row, "data_situacao_especial")),
	}
}

// cleanField trims whitespace and strips stray quote characters left over
// from the source quoting.
func cleanField(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseDecimal normalizes the comma decimal separator to a period before
// parsing. Empty or malformed values become nil.
func parseDecimal(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseDate parses against the single fixed DD/MM/YYYY pattern. Empty or
// malformed values become nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// parseBool reads the dataset's S/N flags. Unrecognized values become nil.
func parseBool(s string) *bool {
	switch strings.ToUpper(s) {
	case "S", "SIM":
		v := true
		return &v
	case "N", "NAO", "NÃO":
		v := false
		return &v
	default:
		return nil
	}
}
