// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/autolp/contract"
	"github.com/luxfi/autolp/modules"
	"github.com/luxfi/autolp/precompileconfig"
)

var _ contract.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "positionAutomationConfig"

// Precompile is the singleton instance. The router binding is installed by
// the embedding VM via Precompile.Manager().SetRouter.
var Precompile = NewContract(NewManager(nil))

// Module is the precompile module (position automation at LP-9090)
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     Precompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}

	Precompile.Manager().SetRouterAddress(config.Router)
	if config.DeadlineWindow > 0 {
		Precompile.Manager().SetDeadlineWindow(config.DeadlineWindow)
	}
	return nil
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade precompileconfig.Upgrade `json:"upgrade,omitempty"`
	// Router overrides the position router address the action sequences
	// are executed against.
	Router common.Address `json:"router,omitempty"`
	// DeadlineWindow is the router deadline in seconds past block time.
	DeadlineWindow uint64 `json:"deadlineWindow,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) &&
		c.Router == other.Router &&
		c.DeadlineWindow == other.DeadlineWindow
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	return nil
}
