package manifest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/internal/segment"
	"github.com/hupe1980/lexgo/schema"
)

const (
	// CurrentFileName is the blob holding the name of the latest meta.
	CurrentFileName = "CURRENT"
	metaPrefix      = "meta-"
	metaSuffix      = ".json"
	// CurrentVersion is the version of the meta format.
	CurrentVersion = 1
)

// Meta describes the committed state of an index.
type Meta struct {
	Version   int            `json:"version"`
	Opstamp   uint64         `json:"opstamp"`
	CreatedAt time.Time      `json:"created_at"`
	Codec     string         `json:"codec"`
	Schema    *schema.Schema `json:"schema"`
	Segments  []segment.Meta `json:"segments"`
}

// New creates an empty meta for s.
func New(s *schema.Schema) *Meta {
	return &Meta{Version: CurrentVersion, Schema: s}
}

// Clone returns a copy whose segment list can be modified independently.
func (m *Meta) Clone() *Meta {
	c := *m
	c.Segments = slices.Clone(m.Segments)
	return &c
}

// NumDocs returns the number of live documents over all segments.
func (m *Meta) NumDocs() uint64 {
	var n uint64
	for _, s := range m.Segments {
		n += uint64(s.NumDocs())
	}
	return n
}

// Files returns the names of every blob referenced by m.
func (m *Meta) Files() []string {
	files := []string{CurrentFileName, MetaFileName(m.Opstamp)}
	for _, s := range m.Segments {
		files = append(files, s.Files()...)
	}
	return files
}

// MetaFileName returns the blob name of the meta committed at opstamp.
func MetaFileName(opstamp uint64) string {
	return fmt.Sprintf("%s%020d%s", metaPrefix, opstamp, metaSuffix)
}

func parseMetaFileName(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, metaPrefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, metaSuffix)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(rest, 10, 64)
	return v, err == nil
}

// IsIndexFile reports whether name is a meta or segment blob. CURRENT is
// not included.
func IsIndexFile(name string) bool {
	if _, ok := parseMetaFileName(name); ok {
		return true
	}
	_, ok := segment.IsSegmentFile(name)
	return ok
}

// Store loads and saves metas.
type Store struct {
	store blobstore.BlobStore
	codec codec.Codec
	mu    sync.Mutex
}

// NewStore creates a meta store. A nil codec selects codec.Default.
func NewStore(store blobstore.BlobStore, c codec.Codec) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{store: store, codec: c}
}

// Load loads the meta CURRENT points to.
func (s *Store) Load(ctx context.Context) (*Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := blobstore.Get(ctx, s.store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("manifest: read %s: %w", CurrentFileName, err)
	}
	return s.load(ctx, strings.TrimSpace(string(current)))
}

// LoadVersion loads the meta committed at opstamp.
func (s *Store) LoadVersion(ctx context.Context, opstamp uint64) (*Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, MetaFileName(opstamp))
}

func (s *Store) load(ctx context.Context, name string) (*Meta, error) {
	data, err := blobstore.Get(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", name, err)
	}
	m := &Meta{}
	if err := s.codec.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest: decode %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	if m.Schema == nil {
		return nil, fmt.Errorf("manifest: %s has no schema", name)
	}
	return m, nil
}

// Save writes m as the meta for its opstamp and points CURRENT at it.
func (s *Store) Save(ctx context.Context, m *Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.Codec = s.codec.Name()
	m.CreatedAt = time.Now().UTC()

	data, err := s.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	name := MetaFileName(m.Opstamp)
	if err := s.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("manifest: write %s: %w", name, err)
	}
	if err := s.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return fmt.Errorf("manifest: write %s: %w", CurrentFileName, err)
	}
	return nil
}

// ListVersions returns the opstamps of every meta blob in ascending order.
func (s *Store) ListVersions(ctx context.Context) ([]uint64, error) {
	names, err := s.store.List(ctx, metaPrefix)
	if err != nil {
		return nil, fmt.Errorf("manifest: list: %w", err)
	}
	var versions []uint64
	for _, n := range names {
		if v, ok := parseMetaFileName(n); ok {
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// DeleteVersion removes the meta committed at opstamp.
func (s *Store) DeleteVersion(ctx context.Context, opstamp uint64) error {
	return s.store.Delete(ctx, MetaFileName(opstamp))
}
