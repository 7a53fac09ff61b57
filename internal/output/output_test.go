package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "markdown", "json", "html", ""} {
		if _, err := GetWriter(format); err != nil {
			t.Errorf("GetWriter(%q) error: %v", format, err)
		}
	}
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestWriteResultTo_Stdout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResultTo(&buf, sampleResult(), "markdown", ""); err != nil {
		t.Fatalf("WriteResultTo error: %v", err)
	}
	if !strings.Contains(buf.String(), "## Critic Code Review") {
		t.Error("expected markdown on fallback writer")
	}
}

func TestWriteResultTo_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.json")
	var buf bytes.Buffer
	if err := WriteResultTo(&buf, sampleResult(), "json", path); err != nil {
		t.Fatalf("WriteResultTo error: %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should reach stdout when writing to a file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"provider": "gemini"`) {
		t.Errorf("file content = %s", data)
	}
}

func TestWriteResultTo_BadFormat(t *testing.T) {
	if err := WriteResultTo(&bytes.Buffer{}, sampleResult(), "yaml", ""); err == nil {
		t.Error("Expected error")
	}
}
