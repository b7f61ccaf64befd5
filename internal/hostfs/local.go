// internal/hostfs/local.go
package hostfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tamzrod/eepromfs/internal/fileindex"
)

// LoadDir reads every regular file in dir whose name ends in ext.
// Order is whatever the directory listing yields; callers must not rely on it.
func LoadDir(dir, ext string) ([]fileindex.File, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("hostfs: list %s: %w", dir, err)
	}

	var files []fileindex.File
	for _, de := range ents {
		if filepath.Ext(de.Name()) != ext {
			continue
		}

		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("hostfs: stat %s: %w", de.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, fmt.Errorf("hostfs: read %s: %w", de.Name(), err)
		}
		files = append(files, fileindex.File{Name: de.Name(), Data: data})
	}
	return files, nil
}

// SaveFiles creates dir if needed and writes each file under its base name.
// Names coming off the device never escape dir.
func SaveFiles(dir string, files []fileindex.File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("hostfs: create %s: %w", dir, err)
	}

	for _, f := range files {
		name := filepath.Base(filepath.Clean("/" + f.Name))
		if name == "/" || name == "." {
			return fmt.Errorf("hostfs: invalid file name %q", f.Name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o644); err != nil {
			return fmt.Errorf("hostfs: write %s: %w", name, err)
		}
	}
	return nil
}
