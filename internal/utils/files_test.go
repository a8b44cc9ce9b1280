package utils_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/medflow-cli/internal/utils"
)

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := utils.WriteOutput(&buf, "-", []byte("stdout")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "stdout" {
		t.Fatalf("expected writer output, got %q", buf.String())
	}

	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := utils.WriteOutput(&buf, path, []byte("file")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "file" {
		t.Fatalf("file not written: %q %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestJSONHelpers(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil || string(b) != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected pretty json %q %v", b, err)
	}
	s, err := utils.CompactJSON([]int{1, 2})
	if err != nil || s != "[1,2]" {
		t.Fatalf("unexpected compact json %q %v", s, err)
	}
}
