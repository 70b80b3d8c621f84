package config

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/autolytiq/vehicletax/internal/domain"
)

// Store is the versioned registry of jurisdiction rulesets. Lookups return
// the exact requested version or fail: a request for an unloaded historical
// version is ConfigurationNotFound, never silently the latest.
//
// The whole rule set is swapped as one atomic snapshot on reload; in-flight
// calculations keep using the snapshot they started with.
type Store struct {
	snapshot atomic.Pointer[storeSnapshot]
}

type storeSnapshot struct {
	// byVersion is keyed by state code and version; latest tracks the
	// highest loaded version per state.
	byVersion map[string]map[int]*domain.TaxRulesConfig
	latest    map[string]int
}

// NewStore builds a store from a validated set of rulesets.
func NewStore(configs []*domain.TaxRulesConfig) *Store {
	s := &Store{}
	s.Replace(configs)
	return s
}

// Replace atomically swaps in a new snapshot built from configs.
func (s *Store) Replace(configs []*domain.TaxRulesConfig) {
	snap := &storeSnapshot{
		byVersion: make(map[string]map[int]*domain.TaxRulesConfig),
		latest:    make(map[string]int),
	}
	for _, cfg := range configs {
		versions, ok := snap.byVersion[cfg.StateCode]
		if !ok {
			versions = make(map[int]*domain.TaxRulesConfig)
			snap.byVersion[cfg.StateCode] = versions
		}
		versions[cfg.Version] = cfg
		if cfg.Version > snap.latest[cfg.StateCode] {
			snap.latest[cfg.StateCode] = cfg.Version
		}
	}
	s.snapshot.Store(snap)
}

// Get returns the ruleset for a state at an exact version.
func (s *Store) Get(stateCode string, version int) (*domain.TaxRulesConfig, error) {
	snap := s.snapshot.Load()
	versions, ok := snap.byVersion[stateCode]
	if !ok {
		return nil, fmt.Errorf("%w: no rules loaded for state %s", domain.ErrConfigurationNotFound, stateCode)
	}
	cfg, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: state %s has no rules version %d", domain.ErrConfigurationNotFound, stateCode, version)
	}
	return cfg, nil
}

// Latest returns the highest loaded version for a state.
func (s *Store) Latest(stateCode string) (*domain.TaxRulesConfig, error) {
	snap := s.snapshot.Load()
	version, ok := snap.latest[stateCode]
	if !ok {
		return nil, fmt.Errorf("%w: no rules loaded for state %s", domain.ErrConfigurationNotFound, stateCode)
	}
	return snap.byVersion[stateCode][version], nil
}

// Resolve returns the ruleset a request asks for: the exact version when the
// input names one, otherwise the latest.
func (s *Store) Resolve(stateCode string, version int) (*domain.TaxRulesConfig, error) {
	if version > 0 {
		return s.Get(stateCode, version)
	}
	return s.Latest(stateCode)
}

// RulesFor implements calculation.ReciprocityDirectory using the latest
// version for the given state.
func (s *Store) RulesFor(stateCode string) (*domain.TaxRulesConfig, bool) {
	cfg, err := s.Latest(stateCode)
	if err != nil {
		return nil, false
	}
	return cfg, true
}

// States lists the loaded state codes, sorted.
func (s *Store) States() []string {
	snap := s.snapshot.Load()
	states := make([]string, 0, len(snap.latest))
	for code := range snap.latest {
		states = append(states, code)
	}
	sort.Strings(states)
	return states
}
