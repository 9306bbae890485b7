package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"solsnap/constants/lipgloss"
	"solsnap/snapshot"
)

// Config represents the structure of the configuration file. It is loaded
// once per invocation and handed to components as an immutable value.
type Config struct {
	Solution       string     `mapstructure:"solution"`
	Managed        bool       `mapstructure:"managed"`
	WorkingDir     string     `mapstructure:"working_dir"`
	Tool           string     `mapstructure:"tool"`
	ManifestFile   string     `mapstructure:"manifest_file"`
	VersionElement string     `mapstructure:"version_element"`
	Bump           string     `mapstructure:"bump"`
	Prerelease     string     `mapstructure:"prerelease"`
	NoisePatterns  []string   `mapstructure:"noise_patterns"`
	Hasher         string     `mapstructure:"hasher"`
	Theme          string     `mapstructure:"theme"`
	Verbose        bool       `mapstructure:"verbose"`
	Git            *GitConfig `mapstructure:"git"`
}

// GitConfig controls the hand-off to version control after a release.
type GitConfig struct {
	Commit          bool   `mapstructure:"commit"`
	Tag             bool   `mapstructure:"tag"`
	Push            bool   `mapstructure:"push"`
	MessageTemplate string `mapstructure:"message_template"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Tool:           "pac",
	ManifestFile:   "Solution.xml",
	VersionElement: "Version",
	NoisePatterns:  snapshot.DefaultNoisePatterns,
	Hasher:         "sha256",
	Theme:          "dracula",
	Git: &GitConfig{
		Commit:          true,
		Tag:             true,
		Push:            false,
		MessageTemplate: "release: snapshot %s v%s",
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for configuration files in the working directory
		viper.SetConfigName("solsnap-config")
		viper.AddConfigPath(cwd)

		// Support both YAML and JSON formats
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			// Defaults, env and flags still apply without a config file
			_ = viper.ReadInConfig()
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("solution", DefaultConfig.Solution)
	viper.SetDefault("managed", DefaultConfig.Managed)
	viper.SetDefault("working_dir", DefaultConfig.WorkingDir)
	viper.SetDefault("tool", DefaultConfig.Tool)
	viper.SetDefault("manifest_file", DefaultConfig.ManifestFile)
	viper.SetDefault("version_element", DefaultConfig.VersionElement)
	viper.SetDefault("bump", DefaultConfig.Bump)
	viper.SetDefault("prerelease", DefaultConfig.Prerelease)
	viper.SetDefault("noise_patterns", DefaultConfig.NoisePatterns)
	viper.SetDefault("hasher", DefaultConfig.Hasher)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("verbose", DefaultConfig.Verbose)
	viper.SetDefault("git.commit", DefaultConfig.Git.Commit)
	viper.SetDefault("git.tag", DefaultConfig.Git.Tag)
	viper.SetDefault("git.push", DefaultConfig.Git.Push)
	viper.SetDefault("git.message_template", DefaultConfig.Git.MessageTemplate)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("solution", "SOLSNAP_SOLUTION")
	_ = viper.BindEnv("managed", "SOLSNAP_MANAGED")
	_ = viper.BindEnv("working_dir", "SOLSNAP_WORKING_DIR")
	_ = viper.BindEnv("tool", "SOLSNAP_TOOL")
	_ = viper.BindEnv("hasher", "SOLSNAP_HASHER")
	_ = viper.BindEnv("theme", "SOLSNAP_THEME")
	_ = viper.BindEnv("verbose", "SOLSNAP_VERBOSE")
	_ = viper.BindEnv("git.push", "SOLSNAP_GIT_PUSH")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("solution", rootCmd.PersistentFlags().Lookup("solution"))
	_ = viper.BindPFlag("managed", rootCmd.PersistentFlags().Lookup("managed"))
	_ = viper.BindPFlag("working_dir", rootCmd.PersistentFlags().Lookup("working_dir"))
	_ = viper.BindPFlag("tool", rootCmd.PersistentFlags().Lookup("tool"))
	_ = viper.BindPFlag("manifest_file", rootCmd.PersistentFlags().Lookup("manifest_file"))
	_ = viper.BindPFlag("bump", rootCmd.PersistentFlags().Lookup("bump"))
	_ = viper.BindPFlag("prerelease", rootCmd.PersistentFlags().Lookup("prerelease"))
	_ = viper.BindPFlag("noise_patterns", rootCmd.PersistentFlags().Lookup("noise_patterns"))
	_ = viper.BindPFlag("hasher", rootCmd.PersistentFlags().Lookup("hasher"))
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("git.push", rootCmd.PersistentFlags().Lookup("push"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (YAML or JSON) with all settings for the run.")

	rootCmd.PersistentFlags().StringP("solution", "s", DefaultConfig.Solution, "Name of the solution to export and snapshot.")
	rootCmd.PersistentFlags().Bool("managed", DefaultConfig.Managed, "Export the managed variant of the solution.")
	rootCmd.PersistentFlags().StringP("working_dir", "w", DefaultConfig.WorkingDir, "Working tree that receives the mirrored snapshot (defaults to the current directory).")
	rootCmd.PersistentFlags().String("tool", DefaultConfig.Tool, "Solution CLI binary used for export and unpack.")
	rootCmd.PersistentFlags().String("manifest_file", DefaultConfig.ManifestFile, "File name of the version manifest inside the exported tree.")
	rootCmd.PersistentFlags().StringP("bump", "b", DefaultConfig.Bump, "Version bump to apply: none, patch, minor or major (defaults to patch when changes are detected).")
	rootCmd.PersistentFlags().String("prerelease", DefaultConfig.Prerelease, "Prerelease label for the bumped version (replaces any existing label).")
	rootCmd.PersistentFlags().StringSlice("noise_patterns", DefaultConfig.NoisePatterns, "Paths excluded from change detection ('*.msapp', 're:<regexp>').")
	rootCmd.PersistentFlags().String("hasher", DefaultConfig.Hasher, "Content digest: sha256 or xxh3.")
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Color theme for diff output (e.g. 'dracula', 'light', 'dark').")
	rootCmd.PersistentFlags().BoolP("verbose", "v", DefaultConfig.Verbose, "Enable debug logging.")
	rootCmd.PersistentFlags().Bool("push", DefaultConfig.Git.Push, "Push the release commit (and tag) after committing.")
}
