package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"receipt-emulator/internal/escpos"
	"receipt-emulator/internal/model"
)

func testJob() *model.Job {
	return &model.Job{
		ID:         uuid.New(),
		Data:       []byte("\x1b@Hello\n"),
		Source:     "TCP-127.0.0.1:50312",
		SourceType: model.SourceTCP,
		ReceivedAt: time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC),
	}
}

func TestReceiptStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts_output")
	store := NewReceiptStore(dir, escpos.Windows1251, nil)

	job := testJob()
	tr := escpos.Transcribe(job.Data, escpos.DefaultOptions())

	artifacts, err := store.Save(job, tr)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	prefix := "2025-03-14T09-26-53-589Z_TCP-127.0.0.1_50312_"
	tests := []struct {
		path string
		name string
		want []byte
	}{
		{artifacts.RawPath, prefix + "pos-input-original.bin", job.Data},
		{artifacts.RichTextPath, prefix + "receipt-rich-text_UTF-8.txt", []byte("<Initialize Printer>\nHello\n")},
		{artifacts.PlainTextPath, prefix + "receipt-plain-text_WINDOWS-1251.txt", []byte("Hello")},
	}

	for _, tt := range tests {
		if filepath.Base(tt.path) != tt.name {
			t.Errorf("file name = %q, want %q", filepath.Base(tt.path), tt.name)
			continue
		}
		got, err := store.Read(tt.path)
		if err != nil {
			t.Errorf("Read(%q) error = %v", tt.path, err)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestReceiptStoreReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	store := NewReceiptStore(dir, escpos.Windows1251, nil)
	job := testJob()

	// a directory in place of the rich-text file makes only that write fail
	blocked := filepath.Join(dir, job.Timestamp()+"_"+job.SafeSource()+"_receipt-rich-text_UTF-8.txt")
	if err := os.Mkdir(blocked, 0755); err != nil {
		t.Fatalf("failed to create blocking directory: %v", err)
	}

	artifacts, err := store.Save(job, escpos.Transcribe(job.Data, escpos.DefaultOptions()))
	if err == nil {
		t.Fatal("Save() succeeded despite blocked file")
	}
	if !strings.Contains(err.Error(), "receipt-rich-text") {
		t.Errorf("error = %v, want rich-text failure", err)
	}
	if artifacts.RawPath == "" || artifacts.PlainTextPath == "" {
		t.Errorf("artifacts = %+v, want raw and plain files written", artifacts)
	}
	if artifacts.RichTextPath != "" {
		t.Errorf("RichTextPath = %q, want empty", artifacts.RichTextPath)
	}
}

func TestReceiptStoreRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewReceiptStore(dir, escpos.Windows1251, nil)
	job := testJob()

	artifacts, err := store.Save(job, escpos.Transcribe(job.Data, escpos.DefaultOptions()))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Remove(artifacts); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	for _, p := range artifacts.Paths() {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still exists", p)
		}
	}
	if err := store.Remove(artifacts); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestReceiptStoreRejectsOutsidePaths(t *testing.T) {
	store := NewReceiptStore(t.TempDir(), escpos.Windows1251, nil)

	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := store.Read(outside); !errors.Is(err, ErrOutsideStore) {
		t.Errorf("Read() error = %v, want ErrOutsideStore", err)
	}
	if _, err := store.Read(filepath.Join(store.Dir(), "..", "x")); !errors.Is(err, ErrOutsideStore) {
		t.Errorf("Read(..) error = %v, want ErrOutsideStore", err)
	}
}
