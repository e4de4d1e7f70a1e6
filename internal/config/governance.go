package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"realms_dao/contract"
	"realms_dao/contract/dao"
)

// GovernanceFile is the yaml form of a governance config. Thresholds are percentages,
// 0 disables the threshold. Durations are seconds.
type GovernanceFile struct {
	CommunityThreshold     uint8  `yaml:"community_threshold"`
	CouncilThreshold       uint8  `yaml:"council_threshold"`
	CommunityVetoThreshold uint8  `yaml:"community_veto_threshold"`
	CouncilVetoThreshold   uint8  `yaml:"council_veto_threshold"`
	Quorum                 uint8  `yaml:"quorum"`
	MinCommunityWeight     uint64 `yaml:"min_community_weight"`
	MinCouncilWeight       uint64 `yaml:"min_council_weight"`
	HoldUpTime             uint32 `yaml:"hold_up_time"`
	MinVotingTime          uint32 `yaml:"min_voting_time"`
	VotingTime             uint32 `yaml:"voting_time"`
	CoolOffTime            uint32 `yaml:"cool_off_time"`
	Tipping                string `yaml:"tipping"`
	DepositExempt          uint8  `yaml:"deposit_exempt"`
}

func threshold(pct uint8) dao.VoteThreshold {
	if pct == 0 {
		return dao.DisabledThreshold()
	}
	return dao.YesVotePercentage(pct)
}

func percentage(t dao.VoteThreshold) uint8 {
	if !t.Enabled() {
		return 0
	}
	return t.Percentage
}

// DefaultGovernanceFile is a council and community governance with a three day vote.
func DefaultGovernanceFile() GovernanceFile {
	return GovernanceFile{
		CommunityThreshold: 60,
		CouncilThreshold:   60,
		Quorum:             10,
		MinCommunityWeight: 1,
		MinCouncilWeight:   1,
		VotingTime:         3 * 24 * 3600,
		Tipping:            dao.VoteTippingStrict.String(),
	}
}

// GovernanceConfig converts and validates the file.
func (f GovernanceFile) GovernanceConfig() (dao.GovernanceConfig, error) {
	tipping, ok := dao.ParseVoteTipping(f.Tipping)
	if !ok {
		return dao.GovernanceConfig{}, fmt.Errorf("unknown tipping %q", f.Tipping)
	}
	cfg := dao.GovernanceConfig{
		CommunityVoteThreshold:             threshold(f.CommunityThreshold),
		CouncilVoteThreshold:               threshold(f.CouncilThreshold),
		CommunityVetoVoteThreshold:         threshold(f.CommunityVetoThreshold),
		CouncilVetoVoteThreshold:           threshold(f.CouncilVetoThreshold),
		QuorumPercentage:                   f.Quorum,
		MinCommunityWeightToCreateProposal: f.MinCommunityWeight,
		MinCouncilWeightToCreateProposal:   f.MinCouncilWeight,
		MinTransactionHoldUpTime:           f.HoldUpTime,
		MinVotingTime:                      f.MinVotingTime,
		VotingBaseTime:                     f.VotingTime,
		VotingCoolOffTime:                  f.CoolOffTime,
		VoteTipping:                        tipping,
		DepositExemptProposalCount:         f.DepositExempt,
	}
	if err := contract.ValidateGovernanceConfig(&cfg); err != nil {
		return dao.GovernanceConfig{}, err
	}
	return cfg, nil
}

// FileFromConfig is the inverse of GovernanceConfig, used when printing configs.
func FileFromConfig(cfg dao.GovernanceConfig) GovernanceFile {
	return GovernanceFile{
		CommunityThreshold:     percentage(cfg.CommunityVoteThreshold),
		CouncilThreshold:       percentage(cfg.CouncilVoteThreshold),
		CommunityVetoThreshold: percentage(cfg.CommunityVetoVoteThreshold),
		CouncilVetoThreshold:   percentage(cfg.CouncilVetoVoteThreshold),
		Quorum:                 cfg.QuorumPercentage,
		MinCommunityWeight:     cfg.MinCommunityWeightToCreateProposal,
		MinCouncilWeight:       cfg.MinCouncilWeightToCreateProposal,
		HoldUpTime:             cfg.MinTransactionHoldUpTime,
		MinVotingTime:          cfg.MinVotingTime,
		VotingTime:             cfg.VotingBaseTime,
		CoolOffTime:            cfg.VotingCoolOffTime,
		Tipping:                cfg.VoteTipping.String(),
		DepositExempt:          cfg.DepositExemptProposalCount,
	}
}

// LoadGovernanceConfig reads a yaml governance file. Missing keys keep the defaults.
func LoadGovernanceConfig(path string) (dao.GovernanceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dao.GovernanceConfig{}, err
	}
	f := DefaultGovernanceFile()
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return dao.GovernanceConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.GovernanceConfig()
}

// MarshalGovernanceConfig renders cfg as yaml.
func MarshalGovernanceConfig(cfg dao.GovernanceConfig) ([]byte, error) {
	return yaml.Marshal(FileFromConfig(cfg))
}
