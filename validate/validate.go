// Command validate checks maze files and client profiles before they are
// uploaded or deployed. For every *.txt maze it checks:
//   - rows are non-empty and all the same width
//   - only the symbols # . S G appear
//   - there is exactly one start (S) and one goal (G)
//   - the goal is reachable from the start through open cells
//
// Every *.json profile must decode and pass the same checks the server
// applies when it loads profiles.
//
// With no arguments it scans ../mazes and ../configs.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mazeplay/game/config"
	"github.com/wricardo/mazeplay/game/grid"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateMaze loads and validates a single maze text file.
func validateMaze(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var rows []string
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		result.fail("Maze is empty")
		return result
	}

	width := len(rows[0])
	starts, goals := 0, 0
	for i, row := range rows {
		if len(row) != width {
			result.fail("Inconsistent width at row %d: expected %d, got %d", i+1, width, len(row))
		}
		for j := 0; j < len(row); j++ {
			switch s := grid.Symbol(row[j]); s {
			case grid.Start:
				starts++
			case grid.Goal:
				goals++
			default:
				if !s.Valid() {
					result.fail("Invalid character %q at position [%d,%d]", row[j], i+1, j+1)
				}
			}
		}
	}

	if starts != 1 {
		result.fail("Must have exactly 1 start (S), found %d", starts)
	}
	if goals != 1 {
		result.fail("Must have exactly 1 goal (G), found %d", goals)
	}

	if !result.Valid {
		return result
	}

	m, err := grid.FromRows(rows)
	if err != nil {
		result.fail("Failed to parse maze: %v", err)
		return result
	}

	reach := validateConnectivity(m)
	if !reach.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, reach.Errors...)

	if result.Valid {
		walls := m.Count(grid.Wall)
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", m.Rows(), m.Cols()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Walls: %d/%d", walls, m.Rows()*m.Cols()))
	}

	return result
}

// validateConnectivity checks that the goal can be reached from the start
// with 4-directional moves over open cells.
func validateConnectivity(m *grid.Grid) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	start, ok := m.Find(grid.Start)
	if !ok {
		result.fail("No start position found for connectivity test")
		return result
	}
	goal, ok := m.Find(grid.Goal)
	if !ok {
		result.fail("No goal position found for connectivity test")
		return result
	}

	dist := m.Distances(start)
	if d := m.DistanceAt(dist, goal); d == grid.Unreachable {
		result.fail("Connectivity failure: goal at %s unreachable from start at %s", goal, start)
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: goal reachable in %d steps", d))
	}

	return result
}

// validateProfile loads and validates a single profile JSON file.
func validateProfile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var p config.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	if err := p.Validate(); err != nil {
		result.fail("%v", err)
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", p.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Editor: %dx%d", p.Editor.Rows, p.Editor.Cols))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Speed: %dms", p.Playback.SpeedMS))
	return result
}

// validateFile dispatches on the file extension.
func validateFile(filePath string) ValidationResult {
	switch filepath.Ext(filePath) {
	case ".txt":
		return validateMaze(filePath)
	case ".json":
		return validateProfile(filePath)
	}
	return ValidationResult{
		File:   filepath.Base(filePath),
		Errors: []string{"Unsupported file type"},
	}
}

// collectFiles expands directories into their maze and profile files.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		for _, pattern := range []string{"*.txt", "*.json"} {
			matches, err := filepath.Glob(filepath.Join(path, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// main validates the given files or directories, printing a concise report
// and exiting with non-zero status if any are invalid.
func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"../mazes", "../configs"}
	}

	files, err := collectFiles(paths)
	if err != nil {
		fmt.Printf("Error finding files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All files are valid!")
	} else {
		fmt.Println("❌ Some files have errors")
		os.Exit(1)
	}
}
