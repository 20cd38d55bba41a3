package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"f1lapcompare/pkg/helper"
	"f1lapcompare/pkg/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	ResourcesDir = "./resources"
	CacheDir     = "./cache"

	TypeCircuitMap = "circuit"
	TypeChannels   = "channels"
	TypeDominance  = "dominance"
	TypeTrackSvg   = "svg-track"
)

// EnsureDir creates dir when it does not exist yet.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	} else if err != nil {
		return err
	}
	return nil
}

type builder func(ctx context.Context, filePath string) error

// Resource is a file produced by the renderer, addressable by the web server.
type Resource struct {
	id     string
	dir    string
	prefix string
	suffix string
	_type  string
}

func NewFigure(dir, id, _type, suffix string) Resource {
	return Resource{
		id:     id,
		dir:    dir,
		prefix: _type + "_",
		suffix: suffix,
		_type:  _type,
	}
}

// Build runs b for the resource unless the file already exists.
func (r Resource) Build(ctx context.Context, b builder) (Resource, error) {
	if r.id == "" {
		return r, fmt.Errorf("id cannot be empty")
	}
	if err := EnsureDir(r.dir); err != nil {
		return r, err
	}
	filePath := r.FilePath()
	if _, err := os.Stat(filePath); err == nil {
		log.Named("resources").Debug("resource already exists", zap.String("file", filePath))
		return r, nil
	} else if !os.IsNotExist(err) {
		return r, err
	}
	if err := b(ctx, filePath); err != nil {
		log.Named("resources").Error("error building resource", zap.String("resource", r.String()), zap.Error(err))
		// a partial file would be taken as built next time
		if rmErr := os.Remove(filePath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Named("resources").Warn("cannot remove partial resource", zap.String("file", filePath), zap.Error(rmErr))
		}
		return r, err
	}
	return r, nil
}

func (r Resource) Type() string {
	return r._type
}

func (r Resource) String() string {
	return fmt.Sprintf("ID: %s, Type: %s", r.id, r._type)
}

func (r Resource) FilePath() string {
	return filepath.Join(r.dir, r.FileName())
}

func (r Resource) FileName() string {
	return fmt.Sprintf("%s%s%s", r.prefix, r.id, r.suffix)
}

type fetcher func(ctx context.Context) ([]byte, error)

// Cache stores raw provider responses on disk, keyed by request URL.
// Requests for the same key wait for each other, different keys do not.
type Cache struct {
	dir  string
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	users int
}

func NewCache(dir string) (*Cache, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, errors.Wrapf(err, "cannot create cache dir %s", dir)
	}
	return &Cache{dir: dir, keys: map[string]*keyLock{}}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, helper.ToID(key)+".json")
}

// lock holds the lock of key until the returned func is called.
func (c *Cache) lock(key string) func() {
	c.mu.Lock()
	kl, ok := c.keys[key]
	if !ok {
		kl = &keyLock{}
		c.keys[key] = kl
	}
	kl.users++
	c.mu.Unlock()

	kl.Lock()
	return func() {
		kl.Unlock()
		c.mu.Lock()
		kl.users--
		if kl.users == 0 {
			delete(c.keys, key)
		}
		c.mu.Unlock()
	}
}

// Get returns the cached body for key, calling fetch and storing its result
// on a miss. Failed fetches are not cached.
func (c *Cache) Get(ctx context.Context, key string, fetch fetcher) ([]byte, error) {
	unlock := c.lock(key)
	defer unlock()

	filePath := c.path(key)
	if data, err := os.ReadFile(filePath); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		log.Named("cache").Warn("cannot store response", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

func (c *Cache) Invalidate(key string) error {
	unlock := c.lock(key)
	defer unlock()
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
