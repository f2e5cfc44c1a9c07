package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// FileWriterAdapter writes output records as JSON files
type FileWriterAdapter struct {
	encoder ValueEncoder
	indent  string
	log     *slog.Logger
}

// NewFileWriterAdapter creates a writer with one-space indentation, the
// layout existing consumers of the output files read
func NewFileWriterAdapter(log *slog.Logger) *FileWriterAdapter {
	return &FileWriterAdapter{
		encoder: HexValueEncoder{},
		indent:  " ",
		log:     log.With("component", "FileWriter"),
	}
}

// WithEncoder replaces the value encoder
func (f *FileWriterAdapter) WithEncoder(enc ValueEncoder) *FileWriterAdapter {
	f.encoder = enc
	return f
}

// WriteDocument writes doc to path, creating parent directories
func (f *FileWriterAdapter) WriteDocument(ctx context.Context, path string, doc models.Document) error {
	data, err := MarshalDocument(doc, f.encoder, f.indent)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	f.log.Debug("wrote output", "path", path, "bytes", len(data))
	return nil
}

// Ensure the adapter implements the interface
var _ usecase.OutputWriter = (*FileWriterAdapter)(nil)
