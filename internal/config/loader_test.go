package config

import (
	"testing"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundleYAML = `
metadata:
  data_year: 2026
  last_updated: "2026-08-01"
  description: "test bundle"
jurisdictions:
  - state_code: KY
    version: 1
    trade_in:
      kind: FULL
    scheme:
      state_rate: "0.06"
    lease:
      method: MONTHLY
      rebate_behavior: NEVER_TAXABLE
      trade_in_credit: NONE
  - state_code: KY
    version: 2
    trade_in:
      kind: FULL
    scheme:
      state_rate: "0.065"
    lease:
      method: MONTHLY
      rebate_behavior: NEVER_TAXABLE
      trade_in_credit: NONE
  - state_code: TN
    version: 1
    trade_in:
      kind: CAPPED
      cap_amount: "5000"
    scheme:
      state_rate: "0.07"
      state_tax_cap: "224"
      local_components:
        - label: "county"
          rate: "0.0225"
    lease:
      method: MONTHLY
      rebate_behavior: ALWAYS_TAXABLE
      trade_in_credit: NONE
`

func TestLoadBundle(t *testing.T) {
	store, err := NewRulesParser().Load([]byte(bundleYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"KY", "TN"}, store.States())

	tn, err := store.Latest("TN")
	require.NoError(t, err)
	assert.Equal(t, "0.07", tn.Scheme.StateRate.String())
	assert.Equal(t, domain.TradeInCapped, tn.TradeIn.Kind)
	require.Len(t, tn.Scheme.LocalComponents, 1)
	assert.Equal(t, "county", tn.Scheme.LocalComponents[0].Label)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := NewRulesParser().Load([]byte("jurisdictions: [broken"))
	assert.ErrorIs(t, err, domain.ErrConfigurationInvalid)
}

func TestLoadRejectsEmptyBundle(t *testing.T) {
	_, err := NewRulesParser().Load([]byte("metadata:\n  data_year: 2026\n"))
	assert.ErrorIs(t, err, domain.ErrConfigurationInvalid)
}

func TestLoadRejectsInvalidJurisdiction(t *testing.T) {
	// A negative rate must abort the whole load, not just one state.
	const bad = `
jurisdictions:
  - state_code: KY
    version: 1
    trade_in:
      kind: FULL
    scheme:
      state_rate: "-0.06"
    lease:
      method: MONTHLY
      trade_in_credit: NONE
`
	_, err := NewRulesParser().Load([]byte(bad))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationInvalid)
	assert.Contains(t, err.Error(), "state_rate")
}

func TestStoreVersionLookups(t *testing.T) {
	store, err := NewRulesParser().Load([]byte(bundleYAML))
	require.NoError(t, err)

	t.Run("exact version", func(t *testing.T) {
		cfg, err := store.Get("KY", 1)
		require.NoError(t, err)
		assert.Equal(t, "0.06", cfg.Scheme.StateRate.String())
	})

	t.Run("latest wins when unversioned", func(t *testing.T) {
		cfg, err := store.Resolve("KY", 0)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Version)
	})

	t.Run("missing version is not served the latest", func(t *testing.T) {
		_, err := store.Get("KY", 7)
		assert.ErrorIs(t, err, domain.ErrConfigurationNotFound)
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := store.Latest("ZZ")
		assert.ErrorIs(t, err, domain.ErrConfigurationNotFound)
	})
}

func TestStoreReplaceSwapsSnapshot(t *testing.T) {
	store := NewStore([]*domain.TaxRulesConfig{validConfig("KY")})
	before, err := store.Latest("KY")
	require.NoError(t, err)

	updated := validConfig("KY")
	updated.Version = 2
	updated.Scheme.StateRate = decimal.NewFromFloat(0.07)
	store.Replace([]*domain.TaxRulesConfig{updated})

	after, err := store.Latest("KY")
	require.NoError(t, err)
	assert.Equal(t, 2, after.Version)
	// The old snapshot's config is untouched; in-flight readers holding it
	// keep a consistent view.
	assert.Equal(t, 1, before.Version)
}

func TestStoreImplementsReciprocityDirectory(t *testing.T) {
	store := NewStore([]*domain.TaxRulesConfig{validConfig("KY")})

	cfg, ok := store.RulesFor("KY")
	require.True(t, ok)
	assert.Equal(t, "KY", cfg.StateCode)

	_, ok = store.RulesFor("ZZ")
	assert.False(t, ok)
}
