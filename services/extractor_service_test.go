package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocumentPages_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constitution.txt")
	require.NoError(t, os.WriteFile(path, []byte("Article 1. The Republic."), 0o644))

	pages, err := LoadDocumentPages(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Article 1. The Republic."}, pages)
}

func TestLoadDocumentPages_Missing(t *testing.T) {
	_, err := LoadDocumentPages(filepath.Join(t.TempDir(), "absent.pdf"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDocumentPages_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constitution.docx")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	_, err := LoadDocumentPages(path)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
	assert.Equal(t, path, loadErr.Path)
}

func TestLoadDocumentPages_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constitution.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := LoadDocumentPages(path)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestSetPDFLicense_EmptyKey(t *testing.T) {
	assert.Error(t, SetPDFLicense(""))
}
