package vector

import (
	"os"
	"path/filepath"

	"github.com/hyperjump/ticketrag/internal/config"
)

// DiskUsage returns the bytes the configured backend keeps on local disk: the memory snapshot,
// or the SQLite file with its WAL and shared-memory companions. Remote backends report 0.
func DiskUsage(cfg *config.VectorConfig) (int64, error) {
	switch BackendType(cfg.Backend) {
	case BackendMemory, "":
		return DiskUsageBytes(cfg.Path)
	case BackendSQLite:
		return DiskUsageBytes(cfg.Path, cfg.Path+"-wal", cfg.Path+"-shm")
	default:
		return 0, nil
	}
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths contribute 0; other errors are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.Walk(p, func(_ string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				total += fi.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
