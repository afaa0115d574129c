// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName           = "unistat"
	defaultConfigName = "config"
	configEnvVar      = "UNISTAT_CONFIG"
)

var userHomeDir, _ = os.UserHomeDir()

// Config search path, in order, when neither --config nor UNISTAT_CONFIG is set
var configSearchPaths = []string{
	filepath.Join(userHomeDir, ".config", appName),
	"/etc/" + appName,
	"./",
}

// Options is the effective configuration after merging defaults, the config
// file, UNISTAT_* environment variables and flags.
type Options struct {
	Port             string        `mapstructure:"port" yaml:"port"`
	Baud             int           `mapstructure:"baud" yaml:"baud"`
	URL              string        `mapstructure:"url" yaml:"url"`
	Username         string        `mapstructure:"username" yaml:"username"`
	NoSSLVerify      bool          `mapstructure:"no_ssl_verify" yaml:"no_ssl_verify"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	LogLevel         string        `mapstructure:"log_level" yaml:"log_level"`
	Debug            bool          `mapstructure:"debug" yaml:"debug"`
}

func defaultOptions() Options {
	return Options{
		Baud:             unimotion.DefaultBaudRate,
		ReadTimeout:      unimotion.DefaultReadTimeout,
		HandshakeTimeout: unimotion.DefaultHandshakeTimeout,
		LogLevel:         log.InfoLevel.String(),
	}
}

// Config keys and the persistent flags bound to them
var flagKeys = map[string]string{
	"port":              "port",
	"baud":              "baud",
	"url":               "url",
	"username":          "username",
	"no_ssl_verify":     "no-ssl-verify",
	"read_timeout":      "read-timeout",
	"handshake_timeout": "handshake-timeout",
	"log_level":         "log-level",
	"debug":             "debug",
}

var (
	opts       = defaultOptions()
	configUsed string
)

// readOptions merges the configuration sources. file overrides the search
// path; flags may be nil.
func readOptions(flags *pflag.FlagSet, file string) (Options, string, error) {
	def := defaultOptions()
	v := viper.New()
	v.SetDefault("port", def.Port)
	v.SetDefault("baud", def.Baud)
	v.SetDefault("url", def.URL)
	v.SetDefault("username", def.Username)
	v.SetDefault("no_ssl_verify", def.NoSSLVerify)
	v.SetDefault("read_timeout", def.ReadTimeout)
	v.SetDefault("handshake_timeout", def.HandshakeTimeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("debug", def.Debug)

	explicit := file != ""
	if !explicit {
		file = os.Getenv(configEnvVar)
		explicit = file != ""
	}
	if explicit {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		for _, p := range configSearchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Options{}, "", fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Options{}, "", fmt.Errorf("failed to read config: %w", err)
		}
		log.Debugln("no config file found, using defaults")
	} else {
		log.Debugln("using config file:", v.ConfigFileUsed())
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return o, v.ConfigFileUsed(), nil
}

// logLevel resolves the logrus level; --debug wins over log_level
func (o Options) logLevel() (log.Level, error) {
	if o.Debug {
		return log.DebugLevel, nil
	}
	level, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", o.LogLevel, err)
	}
	return level, nil
}

// loadConfig fills opts and configures logging before any command runs
func loadConfig() error {
	o, used, err := readOptions(rootCmd.PersistentFlags(), configFile)
	if err != nil {
		return err
	}
	level, err := o.logLevel()
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(level)

	opts = o
	configUsed = used
	return nil
}

// sessionConfig builds the session settings from opts
func sessionConfig() unimotion.Config {
	return unimotion.Config{
		HandshakeTimeout: opts.HandshakeTimeout,
		Logger:           log.StandardLogger(),
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write the effective configuration",
	Long: `Print the configuration unistat would run with, after merging defaults,
the config file, UNISTAT_* environment variables and flags.

With --output the configuration is written as YAML to the given path instead,
for use as a starting config file.`,
	RunE: runConfig,
}

var (
	configPrint     bool
	configOutput    string
	configOverwrite bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configPrint, "print", false, "Print the configuration to stdout")
	configCmd.Flags().StringVarP(&configOutput, "output", "o", filepath.Join(configSearchPaths[0], defaultConfigName+".yaml"), "Path to write the configuration to")
	configCmd.Flags().BoolVarP(&configOverwrite, "yes", "y", false, "Overwrite an existing file")
}

func runConfig(cmd *cobra.Command, args []string) error {
	buf, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if configPrint {
		if configUsed != "" {
			fmt.Printf("# %s\n", configUsed)
		}
		fmt.Print(string(buf))
		return nil
	}

	return writeConfig(configOutput, buf, configOverwrite)
}

func writeConfig(path string, buf []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --yes to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0600); err != nil {
		return fmt.Errorf("cannot write configuration: %w", err)
	}
	log.Infoln("wrote configuration to", path)
	return nil
}
