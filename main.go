package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	logLevel     = "info"
	familiesPath = ""
)

var (
	gConvert  = "Convert:"
	gInspect  = "Inspect:"
	cmdGroups = []string{gConvert, gInspect}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stdout.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.TimeOnly,
		})
	}
	return nil
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a2l2ecu",
		Short: "a2l2ecu converts ASAP2 calibration descriptions into tuning editor definitions",
		Long: `a2l2ecu converts the calibration tables of an ASAP2 (A2L) description into
XDF definitions for tuning editors and ECU XML map definitions for flashing tools.

Tables are selected from a CSV list (Table Name, Category 1-3, Custom Name)
or with ALL, which walks the groups or functions of the description.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&familiesPath, "families", "", "YAML file with additional ECU families")

	for _, g := range cmdGroups {
		cmd.AddGroup(&cobra.Group{ID: g, Title: g})
	}

	cmd.AddCommand(
		NewConvertCommand(targetXDF),
		NewConvertCommand(targetXML),
		NewListCommand(),
		NewTemplateCommand(),
		NewPreviewCommand(),
		NewCompareCommand(),
	)

	return cmd
}
