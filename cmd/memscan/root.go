package main

import (
	"fmt"
	"os"

	"memscan/datatypes"
	"memscan/process"
	"memscan/process_blob"
	"memscan/settings"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	target   string
	dumpDir  string
	cfg      *settings.Settings
	registry = datatypes.NewRegistry()
	v        = settings.New()

	rootCmd = &cobra.Command{
		Use:           "memscan",
		Short:         "Scan and edit the memory of a running process",
		Long:          longRoot,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.StringVarP(&target, "target", "p", "", "process to attach to: pid, exact name or name pattern")
	flags.StringVarP(&dumpDir, "dump", "d", "", "work on a saved dump directory instead of a live process")

	flags.String("alignment", "auto", "element alignment: auto, 1, 2, 4 or 8")
	flags.String("read-mode", "read_before_scan", "read_before_scan, read_interleaved_with_scan or skip")
	flags.Int("workers", 0, "scan workers, 0 for one per CPU")
	flags.Bool("single-threaded", false, "scan every region on one thread with the scalar scanner")
	flags.Bool("validate", false, "re-run each region with the scalar scanner and report differences")
	flags.Bool("debug", false, "print task and plan details")
	bindFlag("scan.alignment", "alignment")
	bindFlag("scan.read_mode", "read-mode")
	bindFlag("scan.workers", "workers")
	bindFlag("scan.single_threaded", "single-threaded")
	bindFlag("scan.validation_scan", "validate")
	bindFlag("log.debug", "debug")
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// initConfig loads settings once flags are parsed. A flag overrides the
// file and environment only when given on the command line.
func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			exitErr("read config", err)
		}
	}
	var err error
	if cfg, err = settings.FromViper(v); err != nil {
		exitErr("config", err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// openProcess opens the dump given with --dump, or else the live --target
func openProcess() (process.Process, error) {
	if dumpDir != "" {
		dump := process_blob.NewProcessDump()
		if err := dump.Load(dumpDir); err != nil {
			return nil, err
		}
		return dump, nil
	}
	if target == "" {
		return nil, fmt.Errorf("one of --target or --dump is required")
	}
	return openLive(target)
}

func debugf(format string, args ...any) {
	if cfg != nil && cfg.Log.Debug {
		fmt.Printf(format, args...)
	}
}

var longRoot = `
memscan finds values in the memory of another process, the way a cheat
table editor does: start with an exact or unknown value, let the target
change it, then narrow the candidates with relative compares
("increased", "decreased by 5") until only the address you want is left.

Every command works on a live process (--target) or on a dump saved with
"memscan dump save" (--dump).
`
