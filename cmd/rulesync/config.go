package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/rulesync/pkg/features"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// ConfigFileName is the project config file looked up in the working
// directory.
const ConfigFileName = "rulesync"

// RunConfig is the resolved configuration shared by generate, import and
// watch.
type RunConfig struct {
	Targets []targets.ToolID
	// Features is nil when the user never configured it.
	Features          []targets.Feature
	BaseDirs          []string
	Delete            bool
	Verbose           bool
	SimulateCommands  bool
	SimulateSubagents bool
}

// FeatureOptions returns the simulated output switches.
func (c *RunConfig) FeatureOptions() features.Options {
	return features.Options{
		SimulateCommands:  c.SimulateCommands,
		SimulateSubagents: c.SimulateSubagents,
	}
}

// loadConfigFile reads --config or ./rulesync.yaml. A missing default file is
// fine; a missing explicit file is not.
func loadConfigFile() error {
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", path)
		}
		return nil
	}

	viper.SetConfigName(ConfigFileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read rulesync.yaml")
	}
	return nil
}

// getRunConfig resolves the run configuration from viper. expandWildcard
// controls whether "*" in targets becomes every tool.
func getRunConfig(expandWildcard bool) (*RunConfig, error) {
	config := &RunConfig{
		BaseDirs:          viper.GetStringSlice("base_dirs"),
		Delete:            viper.GetBool("delete"),
		Verbose:           viper.GetBool("verbose"),
		SimulateCommands:  viper.GetBool("simulate_commands"),
		SimulateSubagents: viper.GetBool("simulate_subagents"),
	}
	if len(config.BaseDirs) == 0 {
		config.BaseDirs = []string{"."}
	}

	tools, err := targets.ParseTargets(viper.GetStringSlice("targets"), expandWildcard)
	if err != nil {
		return nil, errors.Wrap(err, "invalid targets")
	}
	config.Targets = tools

	if viper.IsSet("features") {
		feats, err := targets.ParseFeatures(viper.GetStringSlice("features"))
		if err != nil {
			return nil, errors.Wrap(err, "invalid features")
		}
		if feats == nil {
			feats = []targets.Feature{}
		}
		config.Features = feats
	}

	return config, nil
}
