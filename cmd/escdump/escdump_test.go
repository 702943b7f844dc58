package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecodeFormats(t *testing.T) {
	job := "\x1b@Hello\n\x1dV\x00"

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"rich", []string{"decode", "-"}, "<Initialize Printer>\nHello\n<Full Cut>\n"},
		{"plain", []string{"decode", "--format", "plain", "-"}, "Hello"},
		{"tokens", []string{"decode", "-f", "tokens", "-"}, "000000  command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, job, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if tt.name == "tokens" {
				if !strings.HasPrefix(got, tt.want) || !strings.Contains(got, `"Hello"`) {
					t.Errorf("tokens output = %q", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeHexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.hex")
	if err := os.WriteFile(path, []byte("1b 40 0xAF 0xE0 0xA8 0xA2 0xA5 0xE2 0a"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := execute(t, "", "decode", "--hex", "--codepage", "cp866", "--format", "json", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var doc struct {
		Codepage   string `json:"codepage"`
		TokenCount int    `json:"token_count"`
		PlainText  string `json:"plain_text"`
	}
	if err := json.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, got)
	}
	if doc.Codepage != "cp866" {
		t.Errorf("codepage = %q", doc.Codepage)
	}
	if doc.PlainText != "привет" {
		t.Errorf("plain_text = %q, want привет", doc.PlainText)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"decode"}},
		{"unknown codepage", []string{"decode", "--codepage", "ebcdic", "-"}},
		{"unknown format", []string{"decode", "--format", "pdf", "-"}},
		{"missing file", []string{"decode", filepath.Join(os.TempDir(), "does-not-exist.bin")}},
		{"bad hex", []string{"decode", "--hex", "-"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "zz", tt.args...); err == nil {
				t.Error("Execute() error = nil, want error")
			}
		})
	}
}

func TestCodepages(t *testing.T) {
	got, err := execute(t, "", "codepages")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(got, "ID") {
		t.Errorf("missing header: %q", got)
	}
	for _, want := range []string{"cp437", "windows-1251", "cp866"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}
}

func TestSampleRoundTrip(t *testing.T) {
	job, err := execute(t, "", "sample", "--width", "40", "--cut=false")
	if err != nil {
		t.Fatalf("sample error = %v", err)
	}

	rich, err := execute(t, job, "decode", "-")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if !strings.Contains(rich, "TOTAL: 8.55 EUR") || strings.Contains(rich, "<Full Cut>") {
		t.Errorf("decoded sample:\n%s", rich)
	}
	if !strings.Contains(rich, strings.Repeat("=", 40)) {
		t.Errorf("paper width not applied:\n%s", rich)
	}
}

func TestSampleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.json")
	body := `{"header":"Shop","items":[{"name":"Tea","price":"1.00"}],"codepage":"ebcdic"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "sample", "--file", path); err == nil {
		t.Error("sample with unknown codepage succeeded")
	}
	if _, err := execute(t, "", "sample", "--file", path, "--codepage", "cp850"); err != nil {
		t.Errorf("sample with --codepage override error = %v", err)
	}
}
