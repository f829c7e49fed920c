package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/alejandrodnm/cbctracker/internal/domain"
	"github.com/alejandrodnm/cbctracker/internal/ports"
)

const (
	DefaultNamespace = "cbc_positions"
	DefaultVersion   = "1.0"
)

// VersionedKey builds "<namespace>_v<version>". A schema change bumps the
// version so old payloads are never read with the new shape.
func VersionedKey(namespace, version string) string {
	return fmt.Sprintf("%s_v%s", namespace, version)
}

// PositionStore implements ports.PositionStore by keeping the whole book as
// one JSON array under a versioned key of a KeyValueStore.
//
// Every operation is read, modify, write back, serialised by mu. Two
// processes sharing a remote backend still race: last write wins.
type PositionStore struct {
	kv  ports.KeyValueStore
	key string
	mu  sync.Mutex
}

// NewPositionStore uses DefaultNamespace/DefaultVersion when empty.
func NewPositionStore(kv ports.KeyValueStore, namespace, version string) *PositionStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if version == "" {
		version = DefaultVersion
	}
	return &PositionStore{kv: kv, key: VersionedKey(namespace, version)}
}

// Key returns the backend key the book is stored under.
func (s *PositionStore) Key() string { return s.key }

// ListAll devuelve todas las posiciones, las más recientes primero.
func (s *PositionStore) ListAll(ctx context.Context) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.ListAll: %w", err)
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].OpenedAt.After(positions[j].OpenedAt)
	})
	return positions, nil
}

func (s *PositionStore) Get(ctx context.Context, id string) (domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load(ctx)
	if err != nil {
		return domain.Position{}, fmt.Errorf("storage.Get: %w", err)
	}
	if i := indexOf(positions, id); i >= 0 {
		return positions[i], nil
	}
	return domain.Position{}, fmt.Errorf("storage.Get %s: %w", id, domain.ErrNotFound)
}

func (s *PositionStore) Add(ctx context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("storage.Add: %w", err)
	}
	if indexOf(positions, p.ID) >= 0 {
		return fmt.Errorf("storage.Add %s: %w", p.ID, domain.ErrAlreadyExists)
	}
	if err := s.save(ctx, append(positions, p)); err != nil {
		return fmt.Errorf("storage.Add %s: %w", p.ID, err)
	}
	return nil
}

func (s *PositionStore) Update(ctx context.Context, id string, patch domain.PositionPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load(ctx)
	if err != nil {
		return false, fmt.Errorf("storage.Update: %w", err)
	}
	i := indexOf(positions, id)
	if i < 0 {
		return false, nil
	}
	positions[i] = positions[i].Apply(patch)
	if err := s.save(ctx, positions); err != nil {
		return false, fmt.Errorf("storage.Update %s: %w", id, err)
	}
	return true, nil
}

func (s *PositionStore) UpdateFunc(ctx context.Context, id string, fn func(domain.Position) (domain.PositionPatch, error)) (domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load(ctx)
	if err != nil {
		return domain.Position{}, fmt.Errorf("storage.UpdateFunc: %w", err)
	}
	i := indexOf(positions, id)
	if i < 0 {
		return domain.Position{}, fmt.Errorf("storage.UpdateFunc %s: %w", id, domain.ErrNotFound)
	}
	patch, err := fn(positions[i])
	if err != nil {
		return domain.Position{}, err
	}
	positions[i] = positions[i].Apply(patch)
	if err := s.save(ctx, positions); err != nil {
		return domain.Position{}, fmt.Errorf("storage.UpdateFunc %s: %w", id, err)
	}
	return positions[i], nil
}

func (s *PositionStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.load(ctx)
	if err != nil {
		return false, fmt.Errorf("storage.Delete: %w", err)
	}
	i := indexOf(positions, id)
	if i < 0 {
		return false, nil
	}
	if err := s.save(ctx, append(positions[:i], positions[i+1:]...)); err != nil {
		return false, fmt.Errorf("storage.Delete %s: %w", id, err)
	}
	return true, nil
}

// --- helpers internos ---

// load lee el libro. Un payload corrupto o que no es un array se lee como
// vacío; los registros individuales inválidos se descartan con un warning.
func (s *PositionStore) load(ctx context.Context) ([]domain.Position, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", s.key, domain.ErrPersistence, err)
	}
	if !ok || data == "" {
		return []domain.Position{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		slog.Warn("stored positions unreadable, treating as empty", "key", s.key, "err", err)
		return []domain.Position{}, nil
	}

	positions := make([]domain.Position, 0, len(raw))
	for i, r := range raw {
		var p domain.Position
		if err := json.Unmarshal(r, &p); err != nil {
			slog.Warn("skipping invalid stored position", "key", s.key, "index", i, "err", err)
			continue
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (s *PositionStore) save(ctx context.Context, positions []domain.Position) error {
	data, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func indexOf(positions []domain.Position, id string) int {
	for i, p := range positions {
		if p.ID == id {
			return i
		}
	}
	return -1
}

var _ ports.PositionStore = (*PositionStore)(nil)
