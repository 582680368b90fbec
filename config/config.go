// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/pkg/log"
	"github.com/iotexproject/iotex-btp/relay"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

var (
	// Default is the default config
	Default = Config{
		Chain: Chain{
			Network: "0x1.iotex",
		},
		DB:      db.DefaultConfig,
		XCall:   XCall{Enabled: true},
		Relay:   relay.DefaultConfig,
		SubLogs: make(map[string]log.GlobalConfig),
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateChain,
		ValidateDB,
		ValidateBMC,
		ValidateVerifiers,
		ValidateXCall,
		ValidateRelay,
	}
)

type (
	// Config is the root config of a BTP host
	Config struct {
		Chain     Chain                       `yaml:"chain"`
		DB        db.Config                   `yaml:"db"`
		BMC       BMC                         `yaml:"bmc"`
		Verifiers []Verifier                  `yaml:"verifiers"`
		XCall     XCall                       `yaml:"xcall"`
		Relay     relay.Config                `yaml:"relay"`
		Log       log.GlobalConfig            `yaml:"log"`
		SubLogs   map[string]log.GlobalConfig `yaml:"subLogs"`
	}

	// Chain is the config of the host chain
	Chain struct {
		// Network is the BTP network address of the host, e.g. 0x1.iotex
		Network string `yaml:"network"`
	}

	// BMC is the config of the message center
	BMC struct {
		// Owner is the first owner of the message center
		Owner string `yaml:"owner"`
	}

	// Verifier is the config of a bridge verifier of a peer network
	Verifier struct {
		Net    string `yaml:"net"`
		Offset uint64 `yaml:"offset"`
	}

	// XCall is the config of the call service
	XCall struct {
		Enabled bool `yaml:"enabled"`
		// Admin is the first admin of the call service, the owner of the message center if empty
		Admin string `yaml:"admin"`
		// DApp deploys the sample dapp on top of the call service
		DApp bool `yaml:"dapp"`
		// Fees are the fixed fees set when the call service is registered
		Fees []XCallFees `yaml:"fees"`
	}

	// XCallFees are the fixed fees of calls to a network, an empty Net sets the default fees
	XCallFees struct {
		Net      string `yaml:"net"`
		Relay    uint64 `yaml:"relay"`
		Protocol uint64 `yaml:"protocol"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config path is not empty, it will read from
// the file and override the default configs. By default, it will apply all validation functions. To bypass validation,
// use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// OwnerAddress returns the first owner of the message center
func (cfg Config) OwnerAddress() (address.Address, error) {
	return address.FromString(cfg.BMC.Owner)
}

// AdminAddress returns the first admin of the call service
func (cfg Config) AdminAddress() (address.Address, error) {
	if cfg.XCall.Admin == "" {
		return cfg.OwnerAddress()
	}
	return address.FromString(cfg.XCall.Admin)
}

// ValidateChain validates the network of the host
func ValidateChain(cfg Config) error {
	if err := btp.ValidateNetwork(cfg.Chain.Network); err != nil {
		return errors.Wrapf(ErrInvalidCfg, "invalid network %s", cfg.Chain.Network)
	}
	return nil
}

// ValidateDB validates the db configs
func ValidateDB(cfg Config) error {
	switch cfg.DB.DBType {
	case db.DBBolt, db.DBPebble:
		if cfg.DB.DbPath == "" {
			return errors.Wrapf(ErrInvalidCfg, "db path of %s should not be empty", cfg.DB.DBType)
		}
	case db.DBMemory:
	default:
		return errors.Wrapf(ErrInvalidCfg, "unsupported db type %s", cfg.DB.DBType)
	}
	return nil
}

// ValidateBMC validates the owner of the message center
func ValidateBMC(cfg Config) error {
	if _, err := cfg.OwnerAddress(); err != nil {
		return errors.Wrapf(ErrInvalidCfg, "invalid bmc owner %s", cfg.BMC.Owner)
	}
	return nil
}

// ValidateVerifiers validates the networks of the verifiers
func ValidateVerifiers(cfg Config) error {
	nets := make(map[string]struct{}, len(cfg.Verifiers))
	for _, v := range cfg.Verifiers {
		if err := btp.ValidateNetwork(v.Net); err != nil {
			return errors.Wrapf(ErrInvalidCfg, "invalid verifier network %s", v.Net)
		}
		if v.Net == cfg.Chain.Network {
			return errors.Wrapf(ErrInvalidCfg, "verifier of the host network %s", v.Net)
		}
		if _, ok := nets[v.Net]; ok {
			return errors.Wrapf(ErrInvalidCfg, "duplicate verifier of %s", v.Net)
		}
		nets[v.Net] = struct{}{}
	}
	return nil
}

// ValidateXCall validates the call service configs
func ValidateXCall(cfg Config) error {
	if !cfg.XCall.Enabled {
		if cfg.XCall.DApp {
			return errors.Wrap(ErrInvalidCfg, "dapp requires the call service")
		}
		return nil
	}
	if _, err := cfg.AdminAddress(); err != nil {
		return errors.Wrapf(ErrInvalidCfg, "invalid xcall admin %s", cfg.XCall.Admin)
	}
	for _, f := range cfg.XCall.Fees {
		if f.Net == "" {
			continue
		}
		if err := btp.ValidateNetwork(f.Net); err != nil {
			return errors.Wrapf(ErrInvalidCfg, "invalid xcall fees network %s", f.Net)
		}
	}
	return nil
}

// ValidateRelay validates the relay configs
func ValidateRelay(cfg Config) error {
	if cfg.Relay.TxSizeLimit == 0 {
		return errors.Wrap(ErrInvalidCfg, "relay tx size limit should be greater than 0")
	}
	if cfg.Relay.RetryInterval < 0 || cfg.Relay.MaxRetryInterval < cfg.Relay.RetryInterval {
		return errors.Wrap(ErrInvalidCfg, "invalid relay retry interval")
	}
	return nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
