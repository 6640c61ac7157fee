// Package reid implements the Descriptor Store (C5): on-disk, per-identity
// collections of Re-ID feature vectors, with eager load, L2-distance match,
// and append.
package reid

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/jackbeau/stagehand/internal/errors"
	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/vision"
)

// IdentityRecord is one identity's set of reference feature vectors.
type IdentityRecord struct {
	ID      string
	Vectors []vision.FeatureVector
}

// Store is the sole-writer, eagerly-loaded identity database backing
// either the certain or the uncertain identity folder.
type Store struct {
	mu      sync.RWMutex
	dir     string
	encoder vision.ReIdEncoder
	records map[string]*IdentityRecord
	log     *slog.Logger
}

// New constructs a Store rooted at dir. encoder is used only by Load, to
// extract vectors from images already on disk; Append receives
// already-extracted vectors from the caller's live inference.
func New(dir string, encoder vision.ReIdEncoder) *Store {
	return &Store{
		dir:     dir,
		encoder: encoder,
		records: make(map[string]*IdentityRecord),
		log:     logging.ForService("reid"),
	}
}

// Load scans each subdirectory of dir as an identity, running the encoder
// over every image inside. Identities with zero extracted vectors are
// omitted, per §4.5.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.New(err).Component("reid").Category(errors.CategoryFileIO).Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		vectors, err := s.loadIdentity(filepath.Join(s.dir, id))
		if err != nil {
			s.log.Error("loading identity", "identity", id, "error", err)
			continue
		}
		if len(vectors) == 0 {
			continue
		}
		s.records[id] = &IdentityRecord{ID: id, Vectors: vectors}
	}
	return nil
}

func (s *Store) loadIdentity(dir string) ([]vision.FeatureVector, error) {
	images, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var vectors []vision.FeatureVector
	for _, img := range images {
		if img.IsDir() {
			continue
		}
		path := filepath.Join(dir, img.Name())
		mat := gocv.IMRead(path, gocv.IMReadColor)
		if mat.Empty() {
			mat.Close()
			s.log.Warn("skipping unreadable identity image", "path", path)
			continue
		}
		vec, err := s.encoder.Encode(mat)
		mat.Close()
		if err != nil {
			s.log.Error("encoding identity image", "path", path, "error", err)
			continue
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// Match returns the identity whose best vector distance to q is smallest,
// if that distance is below threshold (§4.5).
func (s *Store) Match(q vision.FeatureVector, threshold float64) (identity string, bestDistance float64, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bestDistance = -1
	for id, rec := range s.records {
		for _, v := range rec.Vectors {
			d := q.Distance(v)
			if bestDistance < 0 || d < bestDistance {
				bestDistance = d
				identity = id
			}
		}
	}
	if bestDistance < 0 || bestDistance >= threshold {
		return "", bestDistance, false
	}
	return identity, bestDistance, true
}

// Count returns the number of identities currently held, used by the
// tracking pipeline to mint fresh uncertain_<n> identifiers.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Append writes img to dir/id/<uuid>.jpg (atomic create) and records vec
// against the in-memory identity, creating the identity if new.
func (s *Store) Append(id string, img gocv.Mat, vec vision.FeatureVector) error {
	idDir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(idDir, 0o755); err != nil {
		return errors.New(err).Component("reid").Category(errors.CategoryFileIO).Build()
	}

	path := filepath.Join(idDir, uuid.NewString()+".jpg")
	if ok := gocv.IMWrite(path, img); !ok {
		return errors.Newf("writing identity image %s", path).
			Component("reid").Category(errors.CategoryFileIO).Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		rec = &IdentityRecord{ID: id}
		s.records[id] = rec
	}
	rec.Vectors = append(rec.Vectors, vec)
	return nil
}

// NextUncertainID mints the next uncertain_<n> label, n equal to the
// current count of uncertain identities (§4.8).
func (s *Store) NextUncertainID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("uncertain_%d", len(s.records))
}
