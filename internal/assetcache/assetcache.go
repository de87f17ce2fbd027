// Package assetcache bounds the disk footprint of rendered session output.
// Generated portraits, scene images, shot clips, and dialog audio accumulate
// quickly across sessions; the cache manager prunes the oldest rendered files
// when the configured size cap or free-space floor is crossed, while always
// keeping the newest few files of each kind per session so a regeneration can
// reuse recent references.
package assetcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"log/slog"

	"golang.org/x/sys/unix"

	"ministory/internal/artifacts"
	"ministory/internal/config"
	"ministory/internal/logging"
)

// Kinds of rendered output tracked by the cache.
const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Manager scans session directories and prunes rendered output.
type Manager struct {
	root         string
	maxBytes     int64
	minFreeBytes uint64
	keepPerKind  int
	logger       *slog.Logger
	statfs       statfsFunc
}

// Stats describes current cache usage.
type Stats struct {
	Files        int           `json:"files"`
	TotalBytes   int64         `json:"total_bytes"`
	MaxBytes     int64         `json:"max_bytes"`
	FreeBytes    uint64        `json:"free_bytes"`
	TotalFSBytes uint64        `json:"total_fs_bytes"`
	Kinds        []KindSummary `json:"kinds"`
}

// KindSummary aggregates usage for one kind of rendered output so the CLI can
// show where the space went.
type KindSummary struct {
	Kind       string `json:"kind"`
	Files      int    `json:"files"`
	TotalBytes int64  `json:"total_bytes"`
}

// NewManager builds a cache manager when enabled; returns nil when caching is
// disabled or misconfigured.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if cfg == nil || !cfg.AssetCache.Enabled {
		return nil
	}
	root := strings.TrimSpace(cfg.Paths.SessionsDir)
	if root == "" || cfg.AssetCache.MaxGiB <= 0 {
		return nil
	}
	manager := &Manager{
		root:         root,
		maxBytes:     int64(cfg.AssetCache.MaxGiB) * 1024 * 1024 * 1024,
		minFreeBytes: uint64(cfg.AssetCache.MinFreeGiB) * 1024 * 1024 * 1024,
		keepPerKind:  cfg.AssetCache.KeepPerKind,
		statfs:       realStatfs,
	}
	manager.SetLogger(logger)
	return manager
}

// SetLogger refreshes the manager's logging destination.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if m == nil {
		return
	}
	m.logger = logging.NewComponentLogger(logger, "assetcache")
}

// Stats returns current usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if m == nil {
		return s, nil
	}
	entries, totalSize, err := m.scan()
	if err != nil {
		return s, err
	}
	totalFS, freeFS, err := m.statfs(m.root)
	if err != nil {
		return s, fmt.Errorf("assetcache: statfs: %w", err)
	}
	byKind := map[string]*KindSummary{}
	for _, entry := range entries {
		summary, ok := byKind[entry.kind]
		if !ok {
			summary = &KindSummary{Kind: entry.kind}
			byKind[entry.kind] = summary
		}
		summary.Files++
		summary.TotalBytes += entry.sizeBytes
	}
	kinds := make([]KindSummary, 0, len(byKind))
	for _, summary := range byKind {
		kinds = append(kinds, *summary)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Kind < kinds[j].Kind })
	s = Stats{
		Files:        len(entries),
		TotalBytes:   totalSize,
		MaxBytes:     m.maxBytes,
		FreeBytes:    freeFS,
		TotalFSBytes: totalFS,
		Kinds:        kinds,
	}
	if len(entries) == 0 {
		m.logger.InfoContext(ctx, "asset cache empty")
	}
	return s, nil
}

// Prune removes the oldest rendered files until both the size cap and the
// free-space floor are satisfied. Files belonging to keepSession, and the
// newest keep-per-kind files in every session, are never removed.
func (m *Manager) Prune(ctx context.Context, keepSession string) error {
	if m == nil {
		return nil
	}
	entries, totalSize, err := m.scan()
	if err != nil {
		return err
	}
	protected := m.protectedPaths(entries, keepSession)

	for _, entry := range entries {
		freeOK, err := m.freeSpaceOK()
		if err != nil {
			return err
		}
		if totalSize <= m.maxBytes && freeOK {
			return nil
		}
		if _, keep := protected[entry.path]; keep {
			continue
		}
		if err := os.Remove(entry.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("assetcache: remove %q: %w", entry.path, err)
		}
		m.logger.InfoContext(ctx, "pruned rendered asset",
			logging.String("asset_path", entry.path),
			logging.String("asset_kind", entry.kind),
			logging.Int64("asset_size_bytes", entry.sizeBytes),
		)
		totalSize -= entry.sizeBytes
	}

	freeOK, err := m.freeSpaceOK()
	if err != nil {
		return err
	}
	if totalSize > m.maxBytes || !freeOK {
		return fmt.Errorf("assetcache: over limits after pruning all unprotected assets (%d bytes remain)", totalSize)
	}
	return nil
}

type assetEntry struct {
	path      string
	kind      string
	sessionID string
	sizeBytes int64
	modTime   time.Time
}

// scan lists rendered files across every session, oldest first.
func (m *Manager) scan() ([]assetEntry, int64, error) {
	sessions, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("assetcache: list sessions: %w", err)
	}

	entries := make([]assetEntry, 0)
	var total int64
	for _, sess := range sessions {
		if !sess.IsDir() {
			continue
		}
		store := artifacts.NewStore(filepath.Join(m.root, sess.Name()))
		for kind, dir := range map[string]string{
			KindImage: store.ImagesDir(),
			KindVideo: store.VideosDir(),
			KindAudio: store.AudioDir(),
		} {
			files, err := os.ReadDir(dir)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				m.logger.Warn("skipping unreadable asset directory",
					logging.String("asset_dir", dir),
					logging.Error(err),
					logging.String(logging.FieldEventType, "assetcache_dir_skipped"),
				)
				continue
			}
			for _, file := range files {
				if file.IsDir() {
					continue
				}
				info, err := file.Info()
				if err != nil {
					continue
				}
				entries = append(entries, assetEntry{
					path:      filepath.Join(dir, file.Name()),
					kind:      kind,
					sessionID: sess.Name(),
					sizeBytes: info.Size(),
					modTime:   info.ModTime(),
				})
				total += info.Size()
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].path < entries[j].path
		}
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}

// protectedPaths marks files pruning must not touch: everything in the active
// session plus the newest keep-per-kind files of each session and kind.
func (m *Manager) protectedPaths(entries []assetEntry, keepSession string) map[string]struct{} {
	protected := make(map[string]struct{})
	keepSession = strings.TrimSpace(keepSession)

	type group struct{ session, kind string }
	newest := make(map[group][]assetEntry)
	for _, entry := range entries {
		if keepSession != "" && entry.sessionID == keepSession {
			protected[entry.path] = struct{}{}
			continue
		}
		key := group{entry.sessionID, entry.kind}
		newest[key] = append(newest[key], entry)
	}
	if m.keepPerKind <= 0 {
		return protected
	}
	for _, group := range newest {
		start := len(group) - m.keepPerKind
		if start < 0 {
			start = 0
		}
		for _, entry := range group[start:] {
			protected[entry.path] = struct{}{}
		}
	}
	return protected
}

func (m *Manager) freeSpaceOK() (bool, error) {
	if m.minFreeBytes == 0 {
		return true, nil
	}
	_, free, err := m.statfs(m.root)
	if err != nil {
		return false, fmt.Errorf("assetcache: statfs: %w", err)
	}
	return free >= m.minFreeBytes, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
