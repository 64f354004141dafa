package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SubmissionsFile is the file name cmd/seed looks for in a dataset directory.
const SubmissionsFile = "submissions.json"

// WriteSubmissions serializes submissions into dir/submissions.json and
// returns the path written.
func WriteSubmissions(submissions []Submission, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, SubmissionsFile)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := Encode(file, submissions); err != nil {
		return "", fmt.Errorf("encode json for %s: %w", path, err)
	}
	return path, nil
}

// Encode writes submissions as an indented JSON array.
func Encode(w io.Writer, submissions []Submission) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(submissions)
}
