package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mohitkumar/busframe/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           "busframe",
		Short:         "busframe - encode, decode, capture and bridge interface driver frame buffers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("capture-dir", "/tmp/busframe", "capture log directory")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("capture.dir", rootCmd.PersistentFlags().Lookup("capture-dir"))

	viper.SetEnvPrefix("busframe")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newDecodeCmd(), newEncodeCmd(), newCaptureCmd(), newBridgeCmd(), newSendCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("busframe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/busframe")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Ignore missing config file; error out on other issues
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
	}
}

// loadConfig resolves the configuration and the logger it asks for.
func loadConfig() (config.Config, *zap.Logger, error) {
	c, err := config.FromViper(viper.GetViper())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := c.NewLogger()
	if err != nil {
		return config.Config{}, nil, err
	}
	return c, logger, nil
}
