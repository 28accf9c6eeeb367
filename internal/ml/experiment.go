package ml

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cutstock/engine/pkg/models"
)

// Variant is the outcome of experiment resolution.
type Variant string

const (
	VariantControl Variant = "control"
	VariantVariant Variant = "variant"
)

// Bucket deterministically maps (salt, experimentId, unitKey) onto
// [0,10000) by taking the first 8 bytes of
// SHA256(salt ":" experimentId ":" unitKey) as an unsigned 64-bit
// integer, modulo 10000.
func Bucket(salt, experimentID, unitKey string) uint64 {
	sum := sha256.Sum256([]byte(salt + ":" + experimentID + ":" + unitKey))
	return binary.BigEndian.Uint64(sum[:8]) % 10000
}

// Resolve assigns variant iff Bucket(...) < experiment.AllocationBasisPts.
func Resolve(experiment models.Experiment, unitKey string) Variant {
	if Bucket(experiment.Salt, experiment.ID, unitKey) < uint64(experiment.AllocationBasisPts) {
		return VariantVariant
	}
	return VariantControl
}

// ExperimentLookup loads the active experiment (if any) for a
// (modelType, tenantID) pair. Tenant-scoped experiments take precedence
// over global ones for the same model type.
type ExperimentLookup func(ctx context.Context, modelType, tenantID string) (*models.Experiment, error)

// ExperimentResolver caches active-experiment lookups with single-flight
// and a jittered TTL (default 60s +/- 5s) so concurrent callers for the
// same (modelType, tenantID) collapse into one lookup.
type ExperimentResolver struct {
	lookup ExperimentLookup
	ttl    time.Duration
	jitter time.Duration

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedExperiment
}

type cachedExperiment struct {
	experiment *models.Experiment
	expiresAt  time.Time
}

// NewExperimentResolver builds a resolver with the given base TTL and
// jitter (defaults 60s/5s when zero).
func NewExperimentResolver(lookup ExperimentLookup, ttl, jitter time.Duration) *ExperimentResolver {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if jitter <= 0 {
		jitter = 5 * time.Second
	}
	return &ExperimentResolver{lookup: lookup, ttl: ttl, jitter: jitter, cache: make(map[string]cachedExperiment)}
}

// Resolve returns the variant assigned to unitKey for (modelType, tenantID),
// or VariantControl with ok=false if no active experiment applies.
func (r *ExperimentResolver) Resolve(ctx context.Context, modelType, tenantID, unitKey string) (Variant, bool, error) {
	exp, err := r.activeExperiment(ctx, modelType, tenantID)
	if err != nil {
		return VariantControl, false, err
	}
	if exp == nil {
		return VariantControl, false, nil
	}
	return Resolve(*exp, unitKey), true, nil
}

func (r *ExperimentResolver) activeExperiment(ctx context.Context, modelType, tenantID string) (*models.Experiment, error) {
	cacheKey := modelType + ":" + tenantID
	r.mu.RLock()
	cached, ok := r.cache[cacheKey]
	r.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.experiment, nil
	}

	v, err, _ := r.group.Do(cacheKey, func() (any, error) {
		exp, err := r.lookup(ctx, modelType, tenantID)
		if err != nil {
			return nil, err
		}
		jitter := time.Duration(rand.Int63n(int64(2*r.jitter))) - r.jitter
		r.mu.Lock()
		r.cache[cacheKey] = cachedExperiment{experiment: exp, expiresAt: time.Now().Add(r.ttl + jitter)}
		r.mu.Unlock()
		return exp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve experiment: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	return v.(*models.Experiment), nil
}
