// Command rxreplay replays a YAML scenario through an rx operator pipeline on
// a virtual clock and prints every notification with its virtual time.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xinjiayu/rx"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		rx.GetLogger().Errorf("%v", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("rxreplay", pflag.ContinueOnError)
	flags.StringP("scenario", "s", "", "scenario file (YAML)")
	flags.StringP("config", "c", "", "config file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.Bool("verbose", false, "include stack traces in error logs")
	if err := flags.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	for key, flag := range map[string]string{
		"scenario":         "scenario",
		"rx.log.level":     "log-level",
		"rx.log.formatter": "log-format",
		"rx.log.verbose":   "verbose",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	for key, env := range map[string]string{
		"scenario":         "RXREPLAY_SCENARIO",
		"rx.log.level":     "RXREPLAY_LOG_LEVEL",
		"rx.log.formatter": "RXREPLAY_LOG_FORMAT",
		"rx.log.verbose":   "RXREPLAY_VERBOSE",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	rx.Configure(v)

	path := v.GetString("scenario")
	if path == "" && flags.NArg() > 0 {
		path = flags.Arg(0)
	}
	if path == "" {
		return errors.New("no scenario given, use --scenario")
	}

	s, err := LoadScenario(path)
	if err != nil {
		return err
	}
	return Run(s, out)
}
