package config

import (
	"fmt"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/Veraticus/ledgerlens/internal/matcher"
	"github.com/Veraticus/ledgerlens/internal/plaid"
	"github.com/Veraticus/ledgerlens/internal/recurring"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "~/.local/share/lens/lens.db"

// SimpleFINSettings locates a SimpleFIN bridge. AccessURL wins over a
// previously claimed StateFile; Token is claimed only when neither exists.
type SimpleFINSettings struct {
	AccessURL string
	Token     string
	StateFile string
}

// Settings is the typed view of the configuration.
type Settings struct {
	Plaid        plaid.Config
	SimpleFIN    SimpleFINSettings
	LogLevel     string
	LogFormat    string
	DatabasePath string
	RulesPath    string // empty selects the built-in rule table
	Matching     matcher.Settings
	Recurring    recurring.Settings
	Workers      int
}

// SetDefaults registers defaults for every key LoadSettings reads.
func SetDefaults(v *viper.Viper) {
	m := matcher.DefaultSettings()
	r := recurring.DefaultSettings()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("rules.path", "")
	v.SetDefault("matching.rent_tolerance", m.RentTolerance)
	v.SetDefault("matching.solar_tolerance", m.SolarTolerance)
	v.SetDefault("matching.loan_tolerance", m.LoanTolerance)
	v.SetDefault("matching.loan_threshold", m.LoanThreshold)
	v.SetDefault("recurring.amount_tolerance", r.AmountTolerance)
	v.SetDefault("recurring.min_occurrences", r.MinOccurrences)
	v.SetDefault("recurring.irregularity_penalty", r.IrregularityPenalty)
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("simplefin.state_file", "~/.local/share/lens/simplefin_auth.json")
	v.SetDefault("engine.workers", engine.DefaultWorkers)
}

// LoadSettings reads settings from v, falling back to defaults.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)

	s := &Settings{
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		DatabasePath: ExpandPath(v.GetString("database.path")),
		RulesPath:    ExpandPath(v.GetString("rules.path")),
		Workers:      v.GetInt("engine.workers"),
		Matching: matcher.Settings{
			RentTolerance:  v.GetFloat64("matching.rent_tolerance"),
			SolarTolerance: v.GetFloat64("matching.solar_tolerance"),
			LoanTolerance:  v.GetFloat64("matching.loan_tolerance"),
			LoanThreshold:  v.GetFloat64("matching.loan_threshold"),
		},
		Plaid: plaid.Config{
			ClientID:    v.GetString("plaid.client_id"),
			Secret:      v.GetString("plaid.secret"),
			Environment: v.GetString("plaid.environment"),
			AccessToken: v.GetString("plaid.access_token"),
		},
		SimpleFIN: SimpleFINSettings{
			AccessURL: v.GetString("simplefin.access_url"),
			Token:     v.GetString("simplefin.token"),
			StateFile: ExpandPath(v.GetString("simplefin.state_file")),
		},
	}

	s.Recurring = recurring.DefaultSettings()
	s.Recurring.AmountTolerance = v.GetFloat64("recurring.amount_tolerance")
	s.Recurring.MinOccurrences = v.GetInt("recurring.min_occurrences")
	s.Recurring.IrregularityPenalty = v.GetFloat64("recurring.irregularity_penalty")

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings the engine cannot run with. Plaid credentials
// are checked only when a command needs them.
func (s *Settings) Validate() error {
	if _, err := common.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if s.LogFormat != "console" && s.LogFormat != "json" {
		return fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, s.LogFormat)
	}
	if s.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}

	checks := []struct {
		ok  bool
		key string
	}{
		{s.Matching.RentTolerance >= 0, "matching.rent_tolerance"},
		{s.Matching.SolarTolerance >= 0, "matching.solar_tolerance"},
		{s.Matching.LoanTolerance >= 0, "matching.loan_tolerance"},
		{s.Matching.LoanThreshold > 0 && s.Matching.LoanThreshold <= 1, "matching.loan_threshold"},
		{s.Recurring.AmountTolerance > 0 && s.Recurring.AmountTolerance < 1, "recurring.amount_tolerance"},
		{s.Recurring.MinOccurrences >= 2, "recurring.min_occurrences"},
		{s.Recurring.IrregularityPenalty >= 0, "recurring.irregularity_penalty"},
		{s.Workers >= 1, "engine.workers"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s out of range", common.ErrInvalidConfig, c.key)
		}
	}
	return nil
}
