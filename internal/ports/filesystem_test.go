package ports

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/.zshrc", filepath.Join(home, ".zshrc")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result := ExpandPath(tt.input)
		if result != tt.expected {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestExpandPath_NotHomePrefix(t *testing.T) {
	// Test that ~ in the middle of a path is not expanded
	result := ExpandPath("/path/with~tilde")
	if result != "/path/with~tilde" {
		t.Errorf("ExpandPath should not expand ~ in middle of path, got %q", result)
	}
}

func TestMockFileSystem_ReadDir(t *testing.T) {
	fs := NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/package.json", `{}`)
	fs.AddFile("/proj/.nvmrc", "20")

	entries, err := fs.ReadDir("/proj")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["package.json"] || !names[".nvmrc"] {
		t.Errorf("ReadDir missing expected entries, got %v", names)
	}
}

func TestMockFileSystem_ReadDir_MissingDir(t *testing.T) {
	fs := NewMockFileSystem()
	if _, err := fs.ReadDir("/nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMockFileSystem_RemoveAll(t *testing.T) {
	fs := NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/a.txt", "a")
	fs.AddFile("/proj/sub/b.txt", "b")

	if err := fs.RemoveAll("/proj"); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if fs.Exists("/proj/a.txt") || fs.Exists("/proj/sub/b.txt") || fs.Exists("/proj") {
		t.Error("RemoveAll left entries behind")
	}
}
