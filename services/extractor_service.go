package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ErrUnsupportedDocument is wrapped in a LoadError for unknown file types.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// SetPDFLicense registers the UniDoc metered key. PDF extraction fails without it.
func SetPDFLicense(key string) error {
	if key == "" {
		return fmt.Errorf("no UniDoc license key provided")
	}
	return license.SetMeteredKey(key)
}

// LoadDocumentPages reads the source document and returns the text of each page.
// Plain text and markdown files are returned as a single page.
func LoadDocumentPages(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		return []string{string(content)}, nil
	case ".pdf":
		pages, err := extractPagesFromPDF(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		return pages, nil
	default:
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedDocument, ext)}
	}
}

// extractPagesFromPDF uses UniPDF to get the text of every page.
func extractPagesFromPDF(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
