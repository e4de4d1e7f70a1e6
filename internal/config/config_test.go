package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realms_dao/contract"
	"realms_dao/contract/dao"
)

// =============================================================================
// Governance Files
// =============================================================================

// TestDefaultGovernanceFile checks the default converts and prints back unchanged.
func TestDefaultGovernanceFile(t *testing.T) {
	f := DefaultGovernanceFile()
	cfg, err := f.GovernanceConfig()
	require.NoError(t, err)
	assert.Equal(t, dao.YesVotePercentage(60), cfg.CommunityVoteThreshold)
	assert.False(t, cfg.CouncilVetoVoteThreshold.Enabled())
	assert.Equal(t, dao.VoteTippingStrict, cfg.VoteTipping)
	assert.Equal(t, f, FileFromConfig(cfg))
}

// TestLoadGovernanceConfig checks missing keys keep their defaults.
func TestLoadGovernanceConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gov.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
council_veto_threshold: 50
voting_time: 7200
cool_off_time: 600
tipping: early-on-council
`), 0o600))

	cfg, err := LoadGovernanceConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dao.YesVotePercentage(50), cfg.CouncilVetoVoteThreshold)
	assert.Equal(t, uint32(7200), cfg.VotingBaseTime)
	assert.Equal(t, uint32(600), cfg.VotingCoolOffTime)
	assert.Equal(t, dao.VoteTippingEarlyOnCouncil, cfg.VoteTipping)
	assert.Equal(t, uint8(10), cfg.QuorumPercentage)

	raw, err := MarshalGovernanceConfig(cfg)
	require.NoError(t, err)
	again := filepath.Join(t.TempDir(), "again.yaml")
	require.NoError(t, os.WriteFile(again, raw, 0o600))
	back, err := LoadGovernanceConfig(again)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

// TestGovernanceFileRejects checks broken files never reach the program.
func TestGovernanceFileRejects(t *testing.T) {
	f := DefaultGovernanceFile()
	f.Tipping = "sometimes"
	_, err := f.GovernanceConfig()
	assert.ErrorContains(t, err, "unknown tipping")

	f = DefaultGovernanceFile()
	f.CoolOffTime = f.VotingTime
	_, err = f.GovernanceConfig()
	assert.ErrorIs(t, err, contract.ErrInvalidGovernanceConfig)

	f = DefaultGovernanceFile()
	f.CommunityThreshold, f.CouncilThreshold = 0, 0
	_, err = f.GovernanceConfig()
	assert.ErrorIs(t, err, contract.ErrInvalidGovernanceConfig)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quorum: [1, 2]"), 0o600))
	_, err = LoadGovernanceConfig(path)
	assert.Error(t, err)

	_, err = LoadGovernanceConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// =============================================================================
// Runtime Config
// =============================================================================

// TestProvider checks values flow from viper into the runtime config.
func TestProvider(t *testing.T) {
	v := viper.New()
	v.Set("program_id", DefaultProgramID)
	v.Set("db_path", "ledger.json")
	v.Set("clock_offset", "90m")
	v.Set("deposit_base", 42)
	v.Set("json", true)

	cfg, err := Provider(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, cfg.ProgramID.String())
	assert.Equal(t, "ledger.json", cfg.DBPath)
	assert.Equal(t, 90*time.Minute, cfg.ClockOffset)
	assert.Equal(t, uint64(42), cfg.DepositBase)
	assert.True(t, cfg.JSON)

	v.Set("program_id", "not-an-address")
	_, err = Provider(v)
	assert.ErrorContains(t, err, "program_id")
}

// TestSetupViperDefaults checks an empty environment still opens a usable node.
func TestSetupViperDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("REALMS_KEYS_DIR", "elsewhere")

	cfg, err := Provider(SetupViper(nil))
	require.NoError(t, err)
	assert.Equal(t, "realms.db", cfg.DBPath)
	assert.Equal(t, "elsewhere", cfg.KeysDir)
	assert.Equal(t, contract.DefaultDepositBase, cfg.DepositBase)
}
