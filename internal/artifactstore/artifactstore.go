// Package artifactstore caches downloaded model artifacts (weight and
// tokenizer files) so a repeated plan does not re-fetch them. Two
// implementations exist behind the same Store interface: BunStore, a
// Postgres-backed cache for long-lived processes, and MemoryStore, an
// in-process fallback. Grounded on the teacher's
// internal/infrastructure/storage.BunStore / MemoryStore pair — same
// split between a bun.DB-backed persistent store and a mutex-guarded map,
// generalized from workflow/execution/node rows to content-addressed blobs.
package artifactstore

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/sentimentomatic/engine/internal/domain"
	pipelineerrors "github.com/sentimentomatic/engine/internal/domain/errors"
	"github.com/sentimentomatic/engine/internal/logging"
	"github.com/sentimentomatic/engine/internal/registry"
)

var log = logging.For("artifactstore")

// estimateThreshold is the distinct-entry count above which TotalSize
// switches from an exact sum to a Registry-driven estimate.
const estimateThreshold = 50

// SizeReport is the outcome of a whole-cache TotalSize query. Estimated
// is true when Bytes is a Registry-driven estimate rather than an exact
// sum over every cached blob.
type SizeReport struct {
	Bytes     int64
	Estimated bool
}

// modelCachedFromPresence applies the cache-presence contract for a model:
// cached iff both at least one config candidate AND at least one weight
// candidate are present.
func modelCachedFromPresence(presence map[string]bool, profile domain.LayoutProfile) (cached, hasConfig, hasWeights bool) {
	for _, p := range profile.ConfigCandidates() {
		if presence[p] {
			hasConfig = true
			break
		}
	}
	for _, p := range profile.WeightCandidates() {
		if presence[p] {
			hasWeights = true
			break
		}
	}
	return hasConfig && hasWeights, hasConfig, hasWeights
}

// Fetcher retrieves the bytes for a single remote file. Implementations
// wrap an HTTP client; kept as an interface so tests can substitute an
// in-memory fetcher instead of hitting the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Store is the cache surface consumed by neuralloader. AnalyzerID-facing
// file paths (e.g. "onnx/model_quantized.onnx") are relative to an
// artifact's ArtifactRef directory.
type Store interface {
	Has(ctx context.Context, ref domain.ArtifactRef, path string) (bool, error)
	BatchPresence(ctx context.Context, ref domain.ArtifactRef, paths []string) (map[string]bool, error)
	Fetch(ctx context.Context, ref domain.ArtifactRef, path, url string) ([]byte, error)
	Size(ctx context.Context, ref domain.ArtifactRef) (int64, error)
	Evict(ctx context.Context, ref domain.ArtifactRef) error
	ClearAll(ctx context.Context) error

	// ModelCached reports whether ref is "cached" for layoutProfile per the
	// cache-presence contract: cached is true only when both hasConfig and
	// hasWeights are true.
	ModelCached(ctx context.Context, ref domain.ArtifactRef, layoutProfile domain.LayoutProfile) (cached, hasConfig, hasWeights bool, err error)

	// TotalSize returns the total bytes held across every cached artifact.
	// When the store holds more than estimateThreshold entries, summing
	// every blob is skipped in favor of an estimate built from reg's
	// per-artifact size estimates over the distinct refs present.
	TotalSize(ctx context.Context, reg *registry.Registry) (SizeReport, error)
}

// blobModel is the bun row shape for one cached artifact file.
type blobModel struct {
	bun.BaseModel `bun:"table:artifact_blobs,alias:ab"`

	Ref       string    `bun:"ref,pk"`
	Path      string    `bun:"path,pk"`
	Data      []byte    `bun:"data"`
	Size      int64     `bun:"size"`
	CachedAt  time.Time `bun:"cached_at"`
}

// BunStore persists artifacts in Postgres via bun, so a cache survives
// process restarts and can be shared across hosts.
type BunStore struct {
	db      *bun.DB
	fetcher Fetcher
}

// NewBunStore opens a Postgres connection pool for dsn and wraps it as an
// artifact Store. fetcher supplies bytes on a cache miss.
func NewBunStore(dsn string, fetcher Fetcher) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db, fetcher: fetcher}
}

// InitSchema creates the backing table if it does not already exist.
func (s *BunStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*blobModel)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return pipelineerrors.CacheUnsupported("schema init failed", err)
	}
	return nil
}

func (s *BunStore) Has(ctx context.Context, ref domain.ArtifactRef, path string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*blobModel)(nil)).
		Where("ref = ?", string(ref)).
		Where("path = ?", path).
		Count(ctx)
	if err != nil {
		return false, pipelineerrors.CacheUnsupported("presence check failed", err)
	}
	return count > 0, nil
}

func (s *BunStore) BatchPresence(ctx context.Context, ref domain.ArtifactRef, paths []string) (map[string]bool, error) {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = false
	}
	if len(paths) == 0 {
		return out, nil
	}
	var rows []blobModel
	err := s.db.NewSelect().
		Model(&rows).
		Column("path").
		Where("ref = ?", string(ref)).
		Where("path IN (?)", bun.In(paths)).
		Scan(ctx)
	if err != nil {
		return nil, pipelineerrors.CacheUnsupported("batch presence check failed", err)
	}
	for _, r := range rows {
		out[r.Path] = true
	}
	return out, nil
}

func (s *BunStore) Fetch(ctx context.Context, ref domain.ArtifactRef, path, url string) ([]byte, error) {
	model := new(blobModel)
	err := s.db.NewSelect().
		Model(model).
		Where("ref = ?", string(ref)).
		Where("path = ?", path).
		Scan(ctx)
	if err == nil {
		return model.Data, nil
	}

	data, ferr := s.fetcher.Fetch(ctx, url)
	if ferr != nil {
		return nil, ferr
	}

	row := &blobModel{Ref: string(ref), Path: path, Data: data, Size: int64(len(data)), CachedAt: time.Now()}
	if _, werr := s.db.NewInsert().Model(row).On("CONFLICT (ref, path) DO UPDATE").Exec(ctx); werr != nil {
		log.Warn().Err(werr).Str("ref", string(ref)).Str("path", path).Msg("artifact cache write failed, serving uncached")
	}
	return data, nil
}

func (s *BunStore) Size(ctx context.Context, ref domain.ArtifactRef) (int64, error) {
	var total sql.NullInt64
	err := s.db.NewSelect().
		Model((*blobModel)(nil)).
		ColumnExpr("SUM(size)").
		Where("ref = ?", string(ref)).
		Scan(ctx, &total)
	if err != nil {
		return 0, pipelineerrors.CacheUnsupported("size query failed", err)
	}
	return total.Int64, nil
}

func (s *BunStore) ModelCached(ctx context.Context, ref domain.ArtifactRef, layoutProfile domain.LayoutProfile) (bool, bool, bool, error) {
	paths := append(append([]string{}, layoutProfile.ConfigCandidates()...), layoutProfile.WeightCandidates()...)
	presence, err := s.BatchPresence(ctx, ref, paths)
	if err != nil {
		return false, false, false, err
	}
	cached, hasConfig, hasWeights := modelCachedFromPresence(presence, layoutProfile)
	return cached, hasConfig, hasWeights, nil
}

func (s *BunStore) TotalSize(ctx context.Context, reg *registry.Registry) (SizeReport, error) {
	count, err := s.db.NewSelect().Model((*blobModel)(nil)).Count(ctx)
	if err != nil {
		return SizeReport{}, pipelineerrors.CacheUnsupported("count query failed", err)
	}
	if count <= estimateThreshold {
		var total sql.NullInt64
		if err := s.db.NewSelect().Model((*blobModel)(nil)).ColumnExpr("SUM(size)").Scan(ctx, &total); err != nil {
			return SizeReport{}, pipelineerrors.CacheUnsupported("size query failed", err)
		}
		return SizeReport{Bytes: total.Int64}, nil
	}

	var refs []string
	if err := s.db.NewSelect().Model((*blobModel)(nil)).Column("ref").Distinct().Scan(ctx, &refs); err != nil {
		return SizeReport{}, pipelineerrors.CacheUnsupported("distinct ref query failed", err)
	}
	var estimated int64
	for _, ref := range refs {
		estimated += reg.EstimateBytesForArtifact(domain.ArtifactRef(ref))
	}
	return SizeReport{Bytes: estimated, Estimated: true}, nil
}

func (s *BunStore) Evict(ctx context.Context, ref domain.ArtifactRef) error {
	_, err := s.db.NewDelete().Model((*blobModel)(nil)).Where("ref = ?", string(ref)).Exec(ctx)
	if err != nil {
		return pipelineerrors.CachePersistenceFailed("evict failed for "+string(ref), err)
	}
	return nil
}

func (s *BunStore) ClearAll(ctx context.Context) error {
	_, err := s.db.NewDelete().Model((*blobModel)(nil)).Where("1 = 1").Exec(ctx)
	if err != nil {
		return pipelineerrors.CachePersistenceFailed("clear-all failed", err)
	}
	return nil
}

// Ping checks database connectivity; callers use this to decide whether to
// fall back to MemoryStore.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *BunStore) Close() error {
	return s.db.Close()
}

// MemoryStore is a process-local, mutex-guarded artifact cache used when no
// database is configured, or as the default in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	fetcher Fetcher
}

// NewMemoryStore constructs an empty in-memory artifact cache.
func NewMemoryStore(fetcher Fetcher) *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte), fetcher: fetcher}
}

func key(ref domain.ArtifactRef, path string) string {
	return string(ref) + "\x00" + path
}

func (s *MemoryStore) Has(_ context.Context, ref domain.ArtifactRef, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key(ref, path)]
	return ok, nil
}

func (s *MemoryStore) BatchPresence(_ context.Context, ref domain.ArtifactRef, paths []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		_, ok := s.blobs[key(ref, p)]
		out[p] = ok
	}
	return out, nil
}

func (s *MemoryStore) Fetch(ctx context.Context, ref domain.ArtifactRef, path, url string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.blobs[key(ref, path)]
	s.mu.RUnlock()
	if ok {
		return data, nil
	}

	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[key(ref, path)] = data
	s.mu.Unlock()
	return data, nil
}

func (s *MemoryStore) Size(_ context.Context, ref domain.ArtifactRef) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	prefix := string(ref) + "\x00"
	for k, v := range s.blobs {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			total += int64(len(v))
		}
	}
	return total, nil
}

func (s *MemoryStore) ModelCached(ctx context.Context, ref domain.ArtifactRef, layoutProfile domain.LayoutProfile) (bool, bool, bool, error) {
	paths := append(append([]string{}, layoutProfile.ConfigCandidates()...), layoutProfile.WeightCandidates()...)
	presence, err := s.BatchPresence(ctx, ref, paths)
	if err != nil {
		return false, false, false, err
	}
	cached, hasConfig, hasWeights := modelCachedFromPresence(presence, layoutProfile)
	return cached, hasConfig, hasWeights, nil
}

func (s *MemoryStore) TotalSize(_ context.Context, reg *registry.Registry) (SizeReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make(map[string]bool)
	var exact int64
	for k, v := range s.blobs {
		exact += int64(len(v))
		if idx := strings.IndexByte(k, 0); idx >= 0 {
			refs[k[:idx]] = true
		}
	}
	if len(s.blobs) <= estimateThreshold {
		return SizeReport{Bytes: exact}, nil
	}

	var estimated int64
	for ref := range refs {
		estimated += reg.EstimateBytesForArtifact(domain.ArtifactRef(ref))
	}
	return SizeReport{Bytes: estimated, Estimated: true}, nil
}

func (s *MemoryStore) Evict(_ context.Context, ref domain.ArtifactRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := string(ref) + "\x00"
	for k := range s.blobs {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.blobs, k)
		}
	}
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string][]byte)
	return nil
}
