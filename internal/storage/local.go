package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"snapbooth/site/internal/domain"
)

const maxNameAttempts = 3

// LocalStore keeps uploads in a single flat directory. Files are written to a temporary name inside the
// root and hard-linked into place, so a name is either absent or complete and is never overwritten.
type LocalStore struct {
	root          string
	publicPrefix  string
	publicBaseURL string
	now           func() time.Time
	token         func() string
}

// NewLocalStore creates the root directory when missing.
func NewLocalStore(root, publicPrefix, publicBaseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", abs, err)
	}
	if publicPrefix == "" {
		publicPrefix = "/api/uploads/intake"
	}
	return &LocalStore{
		root:          resolved,
		publicPrefix:  "/" + strings.Trim(publicPrefix, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
		token:         NewToken,
	}, nil
}

// Root returns the resolved storage directory.
func (s *LocalStore) Root() string { return s.root }

// Save copies src into the root under a unique name.
func (s *LocalStore) Save(ctx context.Context, originalName, contentType string, src io.Reader) (domain.StoredFile, error) {
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", tmpPath).Msg("failed to remove temporary upload")
		}
	}()

	size, err := io.Copy(tmp, readerWithContext(ctx, src))
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("write %s: %w", originalName, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return domain.StoredFile{}, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}

	var name string
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name = StorageName(s.now(), s.token(), originalName)
		err = os.Link(tmpPath, filepath.Join(s.root, name))
		if err == nil || !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("link %s: %w", name, err)
	}

	if contentType == "" {
		contentType = ContentTypeFor(name)
	}
	f := domain.StoredFile{
		OriginalName: originalName,
		StorageName:  name,
		Size:         size,
		ContentType:  contentType,
		PublicPath:   path.Join(s.publicPrefix, name),
	}
	if s.publicBaseURL != "" {
		f.PublicURL = s.publicBaseURL + f.PublicPath
	}
	return f, nil
}

// Path returns the on-disk location of a stored name without any checks. Callers must only pass names
// returned by Save.
func (s *LocalStore) Path(storageName string) string {
	return filepath.Join(s.root, storageName)
}

// Resolve maps a public name to a regular file strictly inside the root.
func (s *LocalStore) Resolve(name string) (string, fs.FileInfo, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", nil, ErrInvalidName
	}
	if strings.Contains(name, "..") {
		return "", nil, ErrTraversal
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", nil, ErrInvalidName
	}

	full := filepath.Clean(filepath.Join(s.root, name))
	if !s.contains(full) {
		return "", nil, ErrTraversal
	}

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	if !s.contains(resolved) {
		return "", nil, ErrTraversal
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, ErrNotFound
	}
	return resolved, info, nil
}

// Open resolves name and opens it for reading.
func (s *LocalStore) Open(name string) (*os.File, fs.FileInfo, error) {
	p, info, err := s.Resolve(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

func (s *LocalStore) contains(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	if ctx == nil {
		return r
	}
	return ctxReader{ctx: ctx, r: r}
}
