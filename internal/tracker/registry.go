package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/storage"
)

// seededKey marks that the built-in factors were seeded once.
const seededKey = "factors.seeded"

// FactorStore defines the storage operations the Registry needs.
// Implemented by storage.Store.
type FactorStore interface {
	ListFactors() ([]storage.Factor, error)
	GetFactor(id string) (storage.Factor, error)
	InsertFactor(f storage.Factor) error
	UpdateFactor(f storage.Factor) error
	DeleteFactor(id string) error
	SeedFactors(factors []storage.Factor, flagKey string) (bool, error)
}

// Registry manages the ordered set of emotional factors. Writes are
// serialized so concurrent adds get distinct orders.
type Registry struct {
	mu     sync.Mutex
	store  FactorStore
	clock  calendar.Clock
	newID  func() string
	logger *slog.Logger
}

// NewRegistry creates a Registry. A nil clock means the wall clock.
func NewRegistry(store FactorStore, clock calendar.Clock) *Registry {
	if clock == nil {
		clock = calendar.New(nil, nil)
	}
	return &Registry{
		store:  store,
		clock:  clock,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
}

// EnsureDefaults seeds the built-in factors into an empty registry. Seeding
// happens at most once per database; it reports whether it ran now.
func (r *Registry) EnsureDefaults() (bool, error) {
	now := r.clock.Now()
	seed := make([]storage.Factor, len(DefaultFactorNames))
	for i, name := range DefaultFactorNames {
		seed[i] = storage.Factor{
			ID:        r.newID(),
			Name:      name,
			SortOrder: i,
			IsActive:  true,
			CreatedAt: now,
		}
	}
	seeded, err := r.store.SeedFactors(seed, seededKey)
	if err != nil {
		return false, fmt.Errorf("seeding default factors: %w", err)
	}
	if seeded {
		r.logger.Info("seeded default factors", "count", len(seed))
	}
	return seeded, nil
}

// ListAll returns every factor sorted by order.
func (r *Registry) ListAll() ([]Factor, error) {
	rows, err := r.store.ListFactors()
	if err != nil {
		return nil, fmt.Errorf("listing factors: %w", err)
	}
	factors := make([]Factor, len(rows))
	for i, row := range rows {
		factors[i] = factorFromRow(row)
	}
	return factors, nil
}

// ListActive returns the active factors in ListAll order.
func (r *Registry) ListActive() ([]Factor, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, f := range all {
		if f.Active {
			active = append(active, f)
		}
	}
	return active, nil
}

func (r *Registry) Get(id string) (Factor, error) {
	row, err := r.store.GetFactor(id)
	if errors.Is(err, storage.ErrNotFound) {
		return Factor{}, ErrNotFound
	}
	if err != nil {
		return Factor{}, fmt.Errorf("loading factor %s: %w", id, err)
	}
	return factorFromRow(row), nil
}

// Resolve finds a factor by ID, case-insensitive name, or unambiguous ID prefix.
func (r *Registry) Resolve(ref string) (Factor, error) {
	all, err := r.ListAll()
	if err != nil {
		return Factor{}, err
	}
	return MatchFactor(all, ref)
}

// MatchFactor finds ref among factors by ID, case-insensitive name, or
// unambiguous ID prefix.
func MatchFactor(factors []Factor, ref string) (Factor, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Factor{}, ErrNotFound
	}
	for _, f := range factors {
		if f.ID == ref {
			return f, nil
		}
	}
	for _, f := range factors {
		if strings.EqualFold(f.Name, ref) {
			return f, nil
		}
	}
	var match *Factor
	for i := range factors {
		if strings.HasPrefix(factors[i].ID, ref) {
			if match != nil {
				return Factor{}, fmt.Errorf("factor reference %q is ambiguous", ref)
			}
			match = &factors[i]
		}
	}
	if match == nil {
		return Factor{}, ErrNotFound
	}
	return *match, nil
}

// Add creates an active custom factor appended after the existing ones.
func (r *Registry) Add(name string) (Factor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Factor{}, ErrInvalidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.ListAll()
	if err != nil {
		return Factor{}, err
	}
	f := Factor{
		ID:        r.newID(),
		Name:      name,
		Order:     len(all),
		Custom:    true,
		Active:    true,
		CreatedAt: r.clock.Now(),
	}
	if err := r.store.InsertFactor(rowFromFactor(f)); err != nil {
		return Factor{}, fmt.Errorf("adding factor %q: %w", name, err)
	}
	return f, nil
}

func (r *Registry) Rename(id, newName string) (Factor, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Factor{}, ErrInvalidName
	}
	return r.update(id, func(f *Factor) { f.Name = newName })
}

// SetActive toggles whether a factor takes part in input and aggregation.
func (r *Registry) SetActive(id string, active bool) (Factor, error) {
	return r.update(id, func(f *Factor) { f.Active = active })
}

func (r *Registry) update(id string, mutate func(*Factor)) (Factor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.Get(id)
	if err != nil {
		return Factor{}, err
	}
	mutate(&f)
	if err := r.store.UpdateFactor(rowFromFactor(f)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Factor{}, ErrNotFound
		}
		return Factor{}, fmt.Errorf("updating factor %s: %w", id, err)
	}
	return f, nil
}

// Remove deletes a custom factor. Removing a factor that no longer exists
// is a no-op. Scores already recorded for it stay on their records.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.Get(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !f.Custom {
		return ErrBuiltInFactor
	}
	if err := r.store.DeleteFactor(id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("removing factor %s: %w", id, err)
	}
	return nil
}

func factorFromRow(row storage.Factor) Factor {
	return Factor{
		ID:        row.ID,
		Name:      row.Name,
		Order:     row.SortOrder,
		Custom:    row.IsCustom,
		Active:    row.IsActive,
		CreatedAt: row.CreatedAt,
	}
}

func rowFromFactor(f Factor) storage.Factor {
	return storage.Factor{
		ID:        f.ID,
		Name:      f.Name,
		SortOrder: f.Order,
		IsCustom:  f.Custom,
		IsActive:  f.Active,
		CreatedAt: f.CreatedAt,
	}
}
