package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jlrickert/cli-toolkit/clock"
	"github.com/jlrickert/renderpath/pkg/log"
)

const (
	// BackupDirName is the directory under the store holding file backups.
	BackupDirName = "backups"

	// MaxBackups is how many backups are kept per file.
	MaxBackups = 10

	backupStampLayout = "20060102_150405"
)

// FileStore is a single JSON document on disk. Saves copy the previous
// version into the backup directory and replace the file atomically.
type FileStore struct {
	Dir  string
	Name string // file name including the .json extension

	mu sync.Mutex
}

// NewFileStore returns a store for dir/name.
func NewFileStore(dir, name string) *FileStore {
	return &FileStore{Dir: dir, Name: name}
}

// Path is the full path of the document.
func (f *FileStore) Path() string {
	return filepath.Join(f.Dir, f.Name)
}

func (f *FileStore) stem() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}

// Exists reports whether the document has been written.
func (f *FileStore) Exists() bool {
	return fileExists(f.Path())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load decodes the document into v. A missing file leaves v untouched.
func (f *FileStore) Load(ctx context.Context, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(ctx, v)
}

func (f *FileStore) loadLocked(ctx context.Context, v any) error {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		log.FromContext(ctx).Warn("empty store file", "path", f.Path())
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", f.Name, ErrInvalid, err)
	}
	return nil
}

// Save encodes v, backing up the current document first.
func (f *FileStore) Save(ctx context.Context, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(ctx, v)
}

// Update loads the document into v, applies fn, and saves the result while
// holding the store lock.
func (f *FileStore) Update(ctx context.Context, v any, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadLocked(ctx, v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return f.saveLocked(ctx, v)
}

func (f *FileStore) saveLocked(ctx context.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.Name, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if f.Exists() {
		if _, err := f.backupLocked(ctx); err != nil {
			log.FromContext(ctx).Warn("backup failed", "path", f.Path(), "error", err)
		}
	}
	return writeFileAtomic(f.Path(), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := strings.TrimSuffix(path, filepath.Ext(path)) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (f *FileStore) backupDir() string {
	return filepath.Join(f.Dir, BackupDirName)
}

func (f *FileStore) backupLocked(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(f.backupDir(), 0o755); err != nil {
		return "", err
	}
	stamp := clock.ClockFromContext(ctx).Now().Format(backupStampLayout)
	dst := f.nextBackupName(stamp)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, f.pruneLocked(ctx)
}

// nextBackupName returns "<stem>_<stamp>.json", or a name with a sequence
// suffix that sorts after every existing backup sharing the same stamp.
func (f *FileStore) nextBackupName(stamp string) string {
	ext := filepath.Ext(f.Name)
	prefix := filepath.Join(f.backupDir(), f.stem()+"_"+stamp)
	matches, _ := filepath.Glob(prefix + "*" + ext)
	seq := -1
	for _, m := range matches {
		rest := strings.TrimSuffix(strings.TrimPrefix(m, prefix), ext)
		if rest == "" {
			seq = max(seq, 0)
			continue
		}
		var n int
		if _, err := fmt.Sscanf(rest, "_%d", &n); err == nil {
			seq = max(seq, n)
		}
	}
	if seq < 0 {
		return prefix + ext
	}
	return fmt.Sprintf("%s_%03d%s", prefix, seq+1, ext)
}

func (f *FileStore) pruneLocked(ctx context.Context) error {
	backups, err := f.backupsLocked()
	if err != nil || len(backups) <= MaxBackups {
		return err
	}
	var errs []error
	for _, old := range backups[MaxBackups:] {
		if err := os.Remove(old); err != nil {
			errs = append(errs, err)
			continue
		}
		log.FromContext(ctx).Debug("pruned backup", "path", old)
	}
	return errors.Join(errs...)
}

// Backups lists backup files for this document, newest first.
func (f *FileStore) Backups() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backupsLocked()
}

func (f *FileStore) backupsLocked() ([]string, error) {
	pattern := filepath.Join(f.backupDir(), f.stem()+"_*"+filepath.Ext(f.Name))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	// Stamps sort lexically in time order.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Restore replaces the document with the contents of backupPath. The current
// document is backed up first.
func (f *FileStore) Restore(ctx context.Context, backupPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return NewNotFoundError("backup", backupPath)
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("backup %s: %w", filepath.Base(backupPath), ErrInvalid)
	}
	if f.Exists() {
		if _, err := f.backupLocked(ctx); err != nil {
			log.FromContext(ctx).Warn("backup before restore failed", "path", f.Path(), "error", err)
		}
	}
	return writeFileAtomic(f.Path(), data)
}

// FileInfo describes the on-disk state of a FileStore.
type FileInfo struct {
	Path     string    `json:"path"`
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Backups  int       `json:"backups"`
}

// Info reports on the document and its backups.
func (f *FileStore) Info(_ context.Context) (FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := FileInfo{Path: f.Path()}
	st, err := os.Stat(info.Path)
	switch {
	case err == nil:
		info.Exists = true
		info.Size = st.Size()
		info.Modified = st.ModTime()
	case !errors.Is(err, fs.ErrNotExist):
		return info, err
	}
	backups, err := f.backupsLocked()
	if err != nil {
		return info, err
	}
	info.Backups = len(backups)
	return info, nil
}
