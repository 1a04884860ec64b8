package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/obs"
)

// CategoryResult tallies one artifact directory's sweep.
type CategoryResult struct {
	Deleted    int   `json:"deleted"`
	Rotated    int   `json:"rotated"`
	FreedBytes int64 `json:"freed_bytes"`
	Errors     int   `json:"errors"`
}

// Result is the outcome of one full sweep.
type Result struct {
	Logs        CategoryResult `json:"logs"`
	Reports     CategoryResult `json:"reports"`
	Screenshots CategoryResult `json:"screenshots"`
	TotalFreed  int64          `json:"total_freed"`
}

// DirUsage is a read-only usage snapshot of one artifact directory.
type DirUsage struct {
	SizeBytes    int64 `json:"size_bytes"`
	FileCount    int   `json:"file_count"`
	OldFileCount int   `json:"old_file_count"`
}

// Sweeper ages out run artifacts (per-run logs, fallback reports,
// screenshots). Over-size log files are rotated rather than deleted; every
// per-file error is counted and the sweep keeps going.
type Sweeper struct {
	log   *zap.Logger
	cfg   config.CleanupConfig
	paths config.PathsConfig

	now func() time.Time
}

func NewSweeper(log *zap.Logger, cfg config.CleanupConfig, paths config.PathsConfig) *Sweeper {
	return &Sweeper{log: log, cfg: cfg, paths: paths, now: time.Now}
}

// PerformCleanup sweeps all three artifact directories.
func (s *Sweeper) PerformCleanup() Result {
	retention := time.Duration(s.cfg.RetentionDays) * 24 * time.Hour
	cutoff := s.now().Add(-retention)

	var res Result
	res.Logs = s.sweepDir(s.paths.Logs, cutoff, true)
	res.Reports = s.sweepDir(s.paths.Reports, cutoff, false)
	res.Screenshots = s.sweepDir(s.paths.Screenshots, cutoff, false)
	res.TotalFreed = res.Logs.FreedBytes + res.Reports.FreedBytes + res.Screenshots.FreedBytes

	obs.CleanupBytesFreed.Add(float64(res.TotalFreed))
	s.log.Info("cleanup_done",
		zap.Int("deleted", res.Logs.Deleted+res.Reports.Deleted+res.Screenshots.Deleted),
		zap.Int("rotated", res.Logs.Rotated),
		zap.Int64("freed_bytes", res.TotalFreed),
		zap.Int("errors", res.Logs.Errors+res.Reports.Errors+res.Screenshots.Errors),
	)
	return res
}

func (s *Sweeper) sweepDir(dir string, cutoff time.Time, rotateOversize bool) CategoryResult {
	var out CategoryResult
	if dir == "" {
		return out
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("cleanup_readdir_error", zap.String("dir", dir), zap.Error(err))
			out.Errors++
		}
		return out
	}

	maxLogBytes := int64(s.cfg.MaxLogSizeMB) * 1024 * 1024

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.log.Warn("cleanup_stat_error", zap.String("path", path), zap.Error(err))
			out.Errors++
			continue
		}
		size := info.Size()

		switch {
		case size == 0 && s.cfg.DeleteEmptyLogs:
			if err := os.Remove(path); err != nil {
				s.log.Warn("cleanup_delete_error", zap.String("path", path), zap.Error(err))
				out.Errors++
				continue
			}
			out.Deleted++
			s.log.Info("cleanup_deleted_empty", zap.String("path", path))

		case info.ModTime().Before(cutoff):
			if err := os.Remove(path); err != nil {
				s.log.Warn("cleanup_delete_error", zap.String("path", path), zap.Error(err))
				out.Errors++
				continue
			}
			out.Deleted++
			out.FreedBytes += size
			s.log.Info("cleanup_deleted_old", zap.String("path", path), zap.Int64("freed_bytes", size))

		case rotateOversize && maxLogBytes > 0 && size > maxLogBytes && !strings.HasSuffix(path, ".old"):
			if err := s.rotate(path); err != nil {
				s.log.Warn("cleanup_rotate_error", zap.String("path", path), zap.Error(err))
				out.Errors++
				continue
			}
			out.Rotated++
			out.FreedBytes += size
			s.log.Info("cleanup_rotated", zap.String("path", path), zap.Int64("freed_bytes", size))
		}
	}
	return out
}

// rotate moves the file aside to a .old sibling and leaves a fresh empty
// file in its place, so open writers re-create cheaply and history survives
// until the .old ages out.
func (s *Sweeper) rotate(path string) error {
	if err := os.Rename(path, path+".old"); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// DiskUsage reports per-directory usage without mutating anything.
func (s *Sweeper) DiskUsage() map[string]DirUsage {
	retention := time.Duration(s.cfg.RetentionDays) * 24 * time.Hour
	cutoff := s.now().Add(-retention)

	return map[string]DirUsage{
		"logs":        s.dirUsage(s.paths.Logs, cutoff),
		"reports":     s.dirUsage(s.paths.Reports, cutoff),
		"screenshots": s.dirUsage(s.paths.Screenshots, cutoff),
	}
}

func (s *Sweeper) dirUsage(dir string, cutoff time.Time) DirUsage {
	var u DirUsage
	if dir == "" {
		return u
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return u
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		u.FileCount++
		u.SizeBytes += info.Size()
		if info.ModTime().Before(cutoff) {
			u.OldFileCount++
		}
	}
	return u
}
