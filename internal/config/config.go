package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"realms_dao/contract"
	"realms_dao/sdk"
)

// DefaultProgramID is where the governance program is installed unless configured.
const DefaultProgramID = "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"

// RuntimeConfig is everything the cli needs to open a node.
type RuntimeConfig struct {
	DBPath      string
	ProgramID   sdk.Address
	LogLevel    string
	JSON        bool
	KeysDir     string
	ClockOffset time.Duration
	DepositBase uint64
}

// SetupViper reads realms.yaml, the environment (REALMS_*) and the flags of cmd.
// A .env file in the working directory is loaded first when present.
func SetupViper(cmd *cobra.Command) *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("realms")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.realms")
	}

	v.SetEnvPrefix("REALMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("db_path", "realms.db")
	v.SetDefault("program_id", DefaultProgramID)
	v.SetDefault("log_level", "info")
	v.SetDefault("json", false)
	v.SetDefault("keys_dir", "keys")
	v.SetDefault("clock_offset", "0s")
	v.SetDefault("deposit_base", contract.DefaultDepositBase)

	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
				panic(err)
			}
		})
	}
	return v
}

// Provider builds the RuntimeConfig out of v.
func Provider(v *viper.Viper) (*RuntimeConfig, error) {
	programID, err := sdk.AddressFromString(v.GetString("program_id"))
	if err != nil {
		return nil, fmt.Errorf("program_id: %w", err)
	}
	return &RuntimeConfig{
		DBPath:      v.GetString("db_path"),
		ProgramID:   programID,
		LogLevel:    v.GetString("log_level"),
		JSON:        v.GetBool("json"),
		KeysDir:     v.GetString("keys_dir"),
		ClockOffset: v.GetDuration("clock_offset"),
		DepositBase: v.GetUint64("deposit_base"),
	}, nil
}
