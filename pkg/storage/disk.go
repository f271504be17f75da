package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/rs/zerolog"
)

const backendDisk = "disk"

// Disk stores documents as local files. Destinations are file paths; their
// parent directories must already exist.
type Disk struct {
	// Perm is applied to newly written files (default 0644).
	Perm fs.FileMode

	logger zerolog.Logger
}

// NewDisk creates a local file store.
func NewDisk() *Disk {
	return &Disk{
		Perm:   0o644,
		logger: logging.NewLogger("storage").With().Str("backend", backendDisk).Logger(),
	}
}

// SetLogger replaces the store's logger.
func (d *Disk) SetLogger(logger zerolog.Logger) {
	d.logger = logger.With().Str("backend", backendDisk).Logger()
}

// Exists reports whether dest exists. Any stat error other than "does not
// exist" is returned.
func (d *Disk) Exists(ctx context.Context, dest string) (bool, error) {
	_, err := os.Stat(dest)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", dest, err)
}

// Write writes data to a temporary file next to dest and renames it into
// place, so readers never observe a partial document.
func (d *Disk) Write(ctx context.Context, dest string, data []byte) (err error) {
	defer func() { observeWrite(backendDisk, len(data), err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", dest, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", dest, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	perm := d.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	if err = os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename into %s: %w", dest, err)
	}

	d.logger.Debug().Str("destination", dest).Int("bytes", len(data)).Msg("Document written")
	return nil
}

// Read returns the content of dest.
func (d *Disk) Read(ctx context.Context, dest string) ([]byte, error) {
	data, err := os.ReadFile(dest)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dest, err)
	}
	return data, nil
}
