// Package catalog lists the remote publication directory and classifies the
// dataset files it links to.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	e "github.com/rmacedo/cnpjsync/internal/ingestion/errors"
	"github.com/rmacedo/cnpjsync/internal/ingestion/fetch"
	"go.uber.org/zap"
)

// Filename tokens identifying the two dataset kinds, matched
// case-insensitively.
const (
	primaryToken   = "EMPRECSV"
	auxiliaryToken = "CNAECSV"
)

// Scanner discovers dataset files on the remote directory listing page.
type Scanner struct {
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// NewScanner constructs a Scanner on top of a Fetcher.
func NewScanner(fetcher *fetch.Fetcher, logger *zap.Logger) *Scanner {
	return &Scanner{
		fetcher: fetcher,
		logger:  logger.Named("catalog"),
	}
}

// ListDatasetFiles fetches the listing page at baseURL and partitions its
// hyperlink targets into primary (company) and auxiliary (classification
// code) dataset files. Subdirectory links and filenames matching neither
// token are dropped. Any failure aborts the whole scan with ErrDiscovery;
// there is no partial catalog.
func (s *Scanner) ListDatasetFiles(ctx context.Context, baseURL string) (primary, auxiliary []string, err error) {
	body, err := s.fetcher.Get(ctx, baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: listing %s: %v", e.ErrDiscovery, baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parsing listing %s: %v", e.ErrDiscovery, baseURL, err)
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		// Directory entries end with a path separator.
		if strings.HasSuffix(href, "/") {
			return
		}
		upper := strings.ToUpper(href)
		switch {
		case strings.Contains(upper, primaryToken):
			primary = append(primary, href)
		case strings.Contains(upper, auxiliaryToken):
			auxiliary = append(auxiliary, href)
		}
	})

	s.logger.Info("catalog scanned",
		zap.String("base_url", baseURL),
		zap.Int("primary_files", len(primary)),
		zap.Int("auxiliary_files", len(auxiliary)),
	)
	return primary, auxiliary, nil
}
