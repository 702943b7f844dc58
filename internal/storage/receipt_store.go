// internal/storage/receipt_store.go
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"receipt-emulator/internal/escpos"
	"receipt-emulator/internal/model"
)

// ErrOutsideStore is returned for paths that do not belong to the store
var ErrOutsideStore = errors.New("path is outside the receipt directory")

// Artifacts holds the files written for one job
type Artifacts struct {
	RawPath       string `json:"raw_path"`
	RichTextPath  string `json:"rich_text_path"`
	PlainTextPath string `json:"plain_text_path"`
}

// Paths returns the non-empty artifact paths
func (a *Artifacts) Paths() []string {
	var paths []string
	for _, p := range []string{a.RawPath, a.RichTextPath, a.PlainTextPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// ReceiptStore writes raw jobs and their renderings to a directory
type ReceiptStore struct {
	dir            string
	outputCodepage escpos.Codepage
	logger         *zap.Logger
}

// NewReceiptStore creates a store rooted at dir
func NewReceiptStore(dir string, outputCodepage escpos.Codepage, logger *zap.Logger) *ReceiptStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptStore{
		dir:            dir,
		outputCodepage: outputCodepage,
		logger:         logger.With(zap.String("component", "receipt_store")),
	}
}

// Dir returns the output directory
func (s *ReceiptStore) Dir() string {
	return s.dir
}

// Init creates the output directory
func (s *ReceiptStore) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Save writes the raw bytes, the UTF-8 rich text and the plain text of a job.
// Each file is attempted even when another fails; the returned artifacts list
// the files that were written.
func (s *ReceiptStore) Save(job *model.Job, tr *escpos.Transcript) (*Artifacts, error) {
	// the directory may have been removed while the service was running
	if err := s.Init(); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_%s", job.Timestamp(), job.SafeSource())
	files := []struct {
		target *string
		name   string
		data   []byte
	}{
		{name: base + "_pos-input-original.bin", data: job.Data},
		{name: base + "_receipt-rich-text_UTF-8.txt", data: []byte(tr.RichText)},
		{name: fmt.Sprintf("%s_receipt-plain-text_%s.txt", base, s.outputCodepage.FileLabel()), data: tr.PlainText},
	}

	artifacts := &Artifacts{}
	files[0].target = &artifacts.RawPath
	files[1].target = &artifacts.RichTextPath
	files[2].target = &artifacts.PlainTextPath

	var result *multierror.Error
	for _, f := range files {
		path := filepath.Join(s.dir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to write %s: %w", f.name, err))
			continue
		}
		*f.target = path
		s.logger.Debug("Receipt file saved",
			zap.String("job_id", job.ID.String()),
			zap.String("path", path),
			zap.Int("bytes", len(f.data)),
		)
	}

	return artifacts, result.ErrorOrNil()
}

// Read returns the content of a file written by the store
func (s *ReceiptStore) Read(path string) ([]byte, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}
	return data, nil
}

// Remove deletes the artifacts of a job. Missing files are ignored.
func (s *ReceiptStore) Remove(artifacts *Artifacts) error {
	var result *multierror.Error
	for _, path := range artifacts.Paths() {
		if err := s.contains(path); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	return result.ErrorOrNil()
}

func (s *ReceiptStore) contains(path string) error {
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s", ErrOutsideStore, path)
	}
	return nil
}
