package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestValidateMaze_Valid(t *testing.T) {
	path := writeFile(t, "ok.txt", "#####\n#S..#\n###.#\n#G..#\n#####\n")

	result := validateMaze(path)
	if !result.Valid {
		t.Fatalf("Expected valid maze, got errors: %v", result.Errors)
	}
	if result.File != "ok.txt" {
		t.Errorf("Expected file name ok.txt, got %s", result.File)
	}
	if !containsLine(result.Errors, "goal reachable in 6 steps") {
		t.Errorf("Expected path length info, got %v", result.Errors)
	}
	if !containsLine(result.Errors, "Grid: 5x5") {
		t.Errorf("Expected size info, got %v", result.Errors)
	}
}

func TestValidateMaze_CRLF(t *testing.T) {
	path := writeFile(t, "crlf.txt", "S.G\r\n...\r\n")

	if result := validateMaze(path); !result.Valid {
		t.Errorf("Expected CRLF maze to be valid, got %v", result.Errors)
	}
}

func TestValidateMaze_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     []string
	}{
		{"empty", "\n\n", []string{"Maze is empty"}},
		{"ragged", "S.G\n..\n", []string{"Inconsistent width at row 2"}},
		{"bad symbol", "S.G\n.x.\n", []string{"Invalid character 'x' at position [2,2]"}},
		{"no start", "..G\n...\n", []string{"exactly 1 start (S), found 0"}},
		{"two goals", "S.G\n..G\n", []string{"exactly 1 goal (G), found 2"}},
		{"several problems", "SS\n.x.\n", []string{"Inconsistent width", "Invalid character", "found 2", "found 0"}},
		{"unreachable", "S#G\n.#.\n", []string{"Connectivity failure: goal at (0,2) unreachable from start at (0,0)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateMaze(writeFile(t, "bad.txt", tt.contents))
			if result.Valid {
				t.Fatal("Expected maze to be invalid")
			}
			for _, want := range tt.want {
				if !containsLine(result.Errors, want) {
					t.Errorf("Expected error containing %q, got %v", want, result.Errors)
				}
			}
		})
	}
}

func TestValidateMaze_MissingFile(t *testing.T) {
	result := validateMaze("/non/existent/maze.txt")
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !containsLine(result.Errors, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		valid    bool
		want     string
	}{
		{
			name:     "valid",
			contents: `{"name":"Test","editor":{"rows":9,"cols":11},"canvas":{"width":400,"dpr":2},"playback":{"speed_ms":15}}`,
			valid:    true,
			want:     "Editor: 9x11",
		},
		{
			name:     "invalid json",
			contents: `{"name": "test", invalid}`,
			want:     "Invalid JSON",
		},
		{
			name:     "missing size",
			contents: `{"name":"Test","canvas":{"width":400}}`,
			want:     "editor size 0x0",
		},
		{
			name:     "bad palette",
			contents: `{"name":"Test","editor":{"rows":9,"cols":9},"canvas":{"width":400},"palette":{"lava":"#ff0000"}}`,
			want:     "unknown palette entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateProfile(writeFile(t, "profile.json", tt.contents))
			if result.Valid != tt.valid {
				t.Fatalf("Expected valid=%v, got %v (%v)", tt.valid, result.Valid, result.Errors)
			}
			if !containsLine(result.Errors, tt.want) {
				t.Errorf("Expected %q in %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateFile_Dispatch(t *testing.T) {
	if result := validateFile(writeFile(t, "notes.md", "# hi")); result.Valid {
		t.Error("Expected unsupported file type to be invalid")
	}
	if result := validateFile(writeFile(t, "m.txt", "SG\n")); !result.Valid {
		t.Errorf("Expected maze to be routed to validateMaze, got %v", result.Errors)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.json", "c.md"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
	}
	single := writeFile(t, "single.txt", "SG\n")

	files, err := collectFiles([]string{dir, single})
	if err != nil {
		t.Fatalf("collectFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got %v", files)
	}
	if filepath.Base(files[2]) != "single.txt" {
		t.Errorf("Expected explicit file last, got %v", files)
	}

	if _, err := collectFiles([]string{"/non/existent"}); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestRepositoryFilesAreValid(t *testing.T) {
	files, err := collectFiles([]string{"../mazes", "../configs"})
	if err != nil {
		t.Skipf("Skipping test - sample files not found: %v", err)
	}
	for _, file := range files {
		if result := validateFile(file); !result.Valid {
			t.Errorf("%s is invalid: %v", result.File, result.Errors)
		}
	}
}

func containsLine(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
