// Package cmd holds the unishop command line: serve runs the API and seed
// loads the demo dataset into a database.
package cmd

import (
	"os"

	"unishop/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:          "unishop",
	Short:        "UniShop uniform store backend",
	SilenceUsage: true,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.Bool("mock", true, "use the in-memory demo dataset instead of a database")
	flags.String("db-driver", config.DriverMongo, "database driver: mongo, postgres or sqlite")
	flags.String("events", config.EventsNone, "order event transport: none, rabbitmq or kafka")

	// Flags win over the environment only when given.
	_ = v.BindPFlag("USE_MOCK_DATA", flags.Lookup("mock"))
	_ = v.BindPFlag("DB_DRIVER", flags.Lookup("db-driver"))
	_ = v.BindPFlag("EVENTS_DRIVER", flags.Lookup("events"))

	rootCmd.AddCommand(serveCmd, seedCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	return config.Load(v)
}
