package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"f1lapcompare/pkg/config"
	"f1lapcompare/pkg/dominance"
	"f1lapcompare/pkg/log"
	"f1lapcompare/pkg/openf1"
	"f1lapcompare/pkg/render"
	"f1lapcompare/pkg/telemetry"
)

const envPrefix = "F1LC"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "f1lapcompare",
	Short: "Compare the telemetry of two Formula 1 laps",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Init(config.LogLevel, config.LogFormat)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.f1lapcompare.yml)")
	pf.StringVar(&config.LogLevel, "log-level", "info",
		"controls the log level (debug, info, warn, error, fatal)")
	pf.StringVar(&config.LogFormat, "log-format", "text", "controls the log output format (text, json)")
	pf.StringVar(&config.ProviderURL, "provider-url", openf1.DefaultURL, "base URL of the OpenF1 API")
	pf.StringVar(&config.CacheDir, "cache-dir", ".f1lapcompare/cache",
		"directory for cached provider responses, empty disables the cache")
	pf.StringVar(&config.ResourcesDir, "out", "figures", "directory for rendered figures")
	pf.StringVar(&config.RequestTimeout, "request-timeout", "30s", "timeout of a single provider request")
	pf.StringSliceVar(&config.Channels, "channels", []string{"all"},
		"telemetry channels to plot (speed, throttle, brake, gear, rpm, drs or all)")
	pf.StringVar(&config.Layout, "layout", string(render.Stacked), "channel charts layout (stacked, side-by-side)")
	pf.IntVar(&config.Width, "width", 1200, "figure width in px")
	pf.IntVar(&config.Height, "height", 260, "height of one channel chart in px")
	pf.IntVar(&config.DominanceBins, "bins", dominance.DefaultBins, "number of minisectors of the dominance map")
	pf.Float64Var(&config.DistanceStep, "distance-step", telemetry.DefaultDistanceStep,
		"resampling step on the distance axis in metres")
	pf.Float64Var(&config.TimeStep, "time-step", telemetry.DefaultTimeStep,
		"resampling step on the time axis in seconds")

	rootCmd.AddCommand(newLapsCmd())
	rootCmd.AddCommand(newFastestCmd())
	rootCmd.AddCommand(newRaceCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBotCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".f1lapcompare")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	bind := func(flags *pflag.FlagSet) {
		flags.VisitAll(func(f *pflag.Flag) {
			// --request-timeout is read from F1LC_REQUEST_TIMEOUT
			if strings.Contains(f.Name, "-") {
				envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
				if err := v.BindEnv(f.Name,
					fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
					fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
				}
			}
			if !f.Changed && v.IsSet(f.Name) {
				if err := flags.Set(f.Name, flagValue(v.Get(f.Name))); err != nil {
					fmt.Fprintf(os.Stderr, "Could not set flag value for %s: %v", f.Name, err)
				}
			}
		})
	}
	bind(cmd.Flags())
	bind(cmd.PersistentFlags())
}

// flagValue turns config file lists into the comma separated form slice
// flags expect.
func flagValue(val any) string {
	if list, ok := val.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("%v", val)
}
