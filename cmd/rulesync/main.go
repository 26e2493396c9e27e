package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/presenter"
)

var rootCmd = &cobra.Command{
	Use:   "rulesync",
	Short: "Keep AI coding assistant configuration in sync",
	Long: `rulesync keeps one canonical set of rules, ignore patterns, MCP servers,
slash commands and subagents in .rulesync/ and generates the native files of
every supported AI coding tool from it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfigFile(); err != nil {
			return err
		}
		presenter.SetQuiet(viper.GetBool("quiet"))
		level := viper.GetString("log_level")
		if viper.GetBool("verbose") {
			level = "debug"
		}
		return logger.Configure(logger.Options{
			Level:  level,
			Format: viper.GetString("log_format"),
			Output: os.Stderr,
		})
	},
}

func init() {
	viper.SetEnvPrefix("RULESYNC")
	viper.AutomaticEnv()

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")
	viper.SetDefault("base_dirs", []string{"."})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (defaults to ./rulesync.yaml)")
	flags.StringSliceP("targets", "t", nil, "Tools to generate for, or * for every tool")
	flags.StringSliceP("features", "f", nil, "Features to sync (rules, ignore, mcp, commands, subagents, or *)")
	flags.StringSlice("base-dirs", nil, "Base directories holding a .rulesync directory")
	flags.Bool("delete", false, "Remove previously generated files before writing")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.BoolP("quiet", "q", false, "Only print errors; never prompt")
	flags.Bool("simulate-commands", false, "Generate simulated commands for tools without native support")
	flags.Bool("simulate-subagents", false, "Generate simulated subagents for tools without native support")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (fmt, json)")

	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("targets", flags.Lookup("targets"))
	viper.BindPFlag("features", flags.Lookup("features"))
	viper.BindPFlag("base_dirs", flags.Lookup("base-dirs"))
	viper.BindPFlag("delete", flags.Lookup("delete"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("quiet", flags.Lookup("quiet"))
	viper.BindPFlag("simulate_commands", flags.Lookup("simulate-commands"))
	viper.BindPFlag("simulate_subagents", flags.Lookup("simulate-subagents"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(gitignoreCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
