package main

import (
	"github.com/spf13/cobra"

	"github.com/arclsm/lsmkv/internal/compactlayout"
	"github.com/arclsm/lsmkv/internal/logging"
	"github.com/arclsm/lsmkv/pkg/codec"
	"github.com/arclsm/lsmkv/pkg/config"
	"github.com/arclsm/lsmkv/pkg/lsmkv"
)

type rootFlags struct {
	dir         string
	configPath  string
	memMaxBytes int64
	logLevel    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "lsmctl",
		Short:         "lsmctl operates an lsmkv database directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dir, "dir", "", "database directory (overrides config file)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().Int64Var(&flags.memMaxBytes, "mem-max-bytes", -1, "max memtable size in bytes before flush (overrides config file)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn, or error (overrides config file)")

	root.AddCommand(newPutCmd(flags))
	root.AddCommand(newGetCmd(flags))
	root.AddCommand(newDelCmd(flags))
	root.AddCommand(newCompactCmd(flags))

	// A wrong argument count is a usage error (exit code 2).
	for _, c := range root.Commands() {
		if c.Args == nil {
			continue
		}
		check := c.Args
		c.Args = func(cmd *cobra.Command, args []string) error {
			if err := check(cmd, args); err != nil {
				return usageErr("%s", err.Error())
			}
			return nil
		}
	}
	return root
}

// loadConfig resolves a Config from --config and layers the CLI's own
// flags on top, matching §4.9's "CLI flags override file values" rule.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.dir != "" {
		cfg.Dir = flags.dir
	}
	if flags.memMaxBytes >= 0 {
		cfg.MaxMemtableSizeBytes = flags.memMaxBytes
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if cfg.Dir == "" {
		return config.Config{}, usageErr("--dir or a config file's dir is required")
	}
	return cfg, nil
}

// openEngine opens the byte-string engine every subcommand but compact
// operates through. compact works directly against the sstable files on
// disk instead, since it must run between engine sessions (§9).
func openEngine(flags *rootFlags) (*lsmkv.Engine[string, string], error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, engineErr(err)
	}
	opts := lsmkv.Options{Dir: cfg.Dir, MaxMemtableSizeBytes: cfg.MaxMemtableSizeBytes, Log: log}
	e, err := lsmkv.Open(opts, codec.String{}, codec.String{})
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}

func newCompactCmd(flags *rootFlags) *cobra.Command {
	var dropTombstones bool
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "merge every sstable in the database directory into one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return engineErr(err)
			}
			res, err := compactlayout.Run(compactlayout.Options{Dir: cfg.Dir, DropTombstones: dropTombstones, Log: log})
			if err != nil {
				return classify(err)
			}
			if res.InputCount == 0 {
				cmd.Println("nothing to compact")
				return nil
			}
			cmd.Printf("merged %d sstables into %s (%d keys)\n", res.InputCount, res.OutputPath, res.KeyCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dropTombstones, "drop-tombstones", false, "omit tombstones from the merged output")
	return cmd
}
