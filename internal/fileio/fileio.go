// Package fileio is the pipeline's only contact with the filesystem:
// the rules input, the generated config output, and the bootstrap
// .gitignore.
package fileio

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ReadRules returns the raw rules-file content. A missing file is an
// error; an empty file is not.
func ReadRules(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fileio: read rules file: %w", err)
	}
	return string(b), nil
}

// WriteAtomic writes data via a temp file in the target directory and
// renames it into place, so an aborted run never leaves a truncated or
// half-written document behind.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("fileio: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("fileio: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fileio: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("fileio: rename into %s: %w", path, err)
	}
	return nil
}

const defaultGitignore = `# Secrets
.env

# Build artifacts
/rules2lint
/dist/
`

// EnsureGitignore creates a .gitignore in dir when missing, or appends
// a .env entry to an existing one that lacks it.
func EnsureGitignore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("creating %s", path)
		return os.WriteFile(path, []byte(defaultGitignore), 0o644)
	}
	if err != nil {
		return fmt.Errorf("fileio: read %s: %w", path, err)
	}
	for _, line := range strings.Split(string(b), "\n") {
		if strings.TrimSpace(line) == ".env" {
			return nil
		}
	}
	log.Printf("adding .env to %s", path)
	content := string(b)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n# Secrets\n.env\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
