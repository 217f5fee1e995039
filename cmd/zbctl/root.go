package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/zerobuf/internal/config"
	"github.com/joshuapare/zerobuf/internal/logger"
	"github.com/joshuapare/zerobuf/schema"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	configPath  string
	logLevel    string
	schemaFiles []string
	typeName    string
	staticSize  int
	numDynamic  int

	cfg      = config.Default()
	registry = schema.NewRegistry()
	printer  = message.NewPrinter(language.English)
)

var rootCmd = &cobra.Command{
	Use:   "zbctl",
	Short: "Inspect and maintain zerobuf buffers",
	Long: `zbctl inspects, validates, compacts and packages zerobuf object buffers.

A buffer's shape comes from --type, naming a schema loaded with --schema or
from the config file, or from --static-size and --num-dynamic.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return setup() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $"+config.EnvConfig+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringSliceVar(&schemaFiles, "schema", nil, "YAML schema file (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&typeName, "type", "t", "", "Schema name of the buffer")
	rootCmd.PersistentFlags().IntVar(&staticSize, "static-size", 0, "Static section size when no --type is given")
	rootCmd.PersistentFlags().IntVar(&numDynamic, "num-dynamic", 0, "Directory entries when no --type is given")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config, initializes logging and loads schema files.
func setup() error {
	c, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	cfg = c

	name := cfg.Logging.Level
	if logLevel != "" {
		name = logLevel
	}
	level, err := logger.ParseLevel(name)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{Enabled: true, Level: level, Format: cfg.Logging.Format}); err != nil {
		return err
	}

	registry = schema.NewRegistry()
	for _, path := range append(append([]string(nil), cfg.Schemas...), schemaFiles...) {
		r, err := schema.LoadFile(path)
		if err != nil {
			return err
		}
		for _, n := range r.Names() {
			s, _ := r.Lookup(n)
			if err := registry.Add(s); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		printVerbose("Loaded %d schema(s) from %s\n", len(r.Names()), path)
	}
	return nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatBytes renders a byte count with digit grouping.
func formatBytes(n int) string {
	if n == 1 {
		return "1 byte"
	}
	return printer.Sprintf("%d bytes", n)
}
