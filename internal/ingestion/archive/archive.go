// Package archive handles the downloaded blobs, which are either ZIP
// archives or already-plain delimited text. Classification is an explicit
// magic-byte check rather than attempting extraction and catching the
// failure.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Kind classifies a downloaded blob.
type Kind int

const (
	// KindPlainText is any content that does not carry the ZIP signature.
	KindPlainText Kind = iota
	// KindArchive is ZIP content.
	KindArchive
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Sniff classifies the file at path by its leading bytes. Files shorter
// than the ZIP signature are plain text.
func Sniff(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindPlainText, err
	}
	defer f.Close()

	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return KindPlainText, nil
		}
		return KindPlainText, err
	}
	if bytes.Equal(header, zipMagic) {
		return KindArchive, nil
	}
	return KindPlainText, nil
}

// Extractor extracts downloaded archives into the staging directory.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger.Named("extractor")}
}

// Extract attempts to unpack the file at path into destDir. Plain-text
// content is a recognized non-error outcome: Extract returns (false, nil)
// and writes nothing. The original blob at path is never touched.
func (x *Extractor) Extract(path, destDir string) (bool, error) {
	kind, err := Sniff(path)
	if err != nil {
		return false, err
	}
	if kind != KindArchive {
		x.logger.Info("not an archive, skipping extraction",
			zap.String("file", filepath.Base(path)),
		)
		return false, nil
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return false, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer reader.Close()

	for _, member := range reader.File {
		if err := extractMember(member, destDir); err != nil {
			return false, err
		}
	}
	x.logger.Info("archive extracted",
		zap.String("file", filepath.Base(path)),
		zap.Int("members", len(reader.File)),
	)
	return true, nil
}

func extractMember(member *zip.File, destDir string) error {
	// Reject member names that would escape the staging directory.
	name := filepath.Clean(member.Name)
	if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
		return fmt.Errorf("archive member %q escapes destination", member.Name)
	}
	target := filepath.Join(destDir, name)

	if member.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("opening member %s: %w", member.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extracting member %s: %w", member.Name, err)
	}
	return nil
}

// FirstMemberName returns the name of the first member in archive order.
// Used to derive the extracted text filename when the downloaded file
// carries no .zip suffix; with multiple members the first is an arbitrary
// but stable tie-break.
func FirstMemberName(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer reader.Close()

	if len(reader.File) == 0 {
		return "", fmt.Errorf("archive %s has no members", path)
	}
	return reader.File[0].Name, nil
}
