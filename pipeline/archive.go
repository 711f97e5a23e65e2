package pipeline

import (
	"fmt"

	"usgs-water-summary/config"
	"usgs-water-summary/storage"
)

// OpenArchive returns the archive selected by cfg.ArchiveBackend, or nil
// when archiving is off.
func OpenArchive(cfg *config.Config) (storage.ReadingArchive, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveNone, "":
		return nil, nil
	case config.ArchiveSQLite:
		w, err := storage.NewSQLiteWriter(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.ArchivePostgres:
		w, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}
}
