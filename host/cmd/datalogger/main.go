package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"datalogger/board"
	"datalogger/config"
	"datalogger/core"
	"datalogger/host/serial"
)

var (
	boardPath string
	logLevel  string

	mainCmd = &cobra.Command{
		Use:           "datalogger",
		Short:         "Battery powered data logger, hosted on a workstation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the logger with simulated pins; stdin drives the button and the card",
		Args:  cobra.NoArgs,
		RunE:  runLogger,
	}
	checkCmd = &cobra.Command{
		Use:   "check <config.txt>",
		Short: "Parse a configuration file and print the resulting settings",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	templateCmd = &cobra.Command{
		Use:   "template",
		Short: "Print the configuration file template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.WriteTemplate(cmd.OutOrStdout())
		},
	}
	boardCmd = &cobra.Command{
		Use:   "board <file>",
		Short: "Write the default board file (.yaml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return board.Default().Save(args[0])
		},
	}
	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE:  runPorts,
	}
)

func loadBoard() (*board.Config, error) {
	b, err := board.Load(boardPath)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("board %s: %w", boardPath, err)
	}
	level := b.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := core.SetLogLevel(level); err != nil {
		return nil, err
	}
	return b, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	s := config.Default()
	if err := config.Parse(f, s); err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(s)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := serial.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	mainCmd.PersistentFlags().StringVarP(&boardPath, "board", "b", "board.yaml", "Board file. Pin assignments and peripherals, YAML or TOML")
	mainCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level. Overrides the board file")
	mainCmd.AddCommand(runCmd, checkCmd, templateCmd, boardCmd, portsCmd)

	if err := mainCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
