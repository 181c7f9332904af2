package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/fetch"
	"dbmd-fetch/internal/schema"
)

var (
	cfgFile string
	logger  = zap.NewNop()
)

var RootCmd = &cobra.Command{
	Use:   "dbmd-fetch [flags] <conn-props-file> <database-type> <output-file>",
	Short: "Fetch database metadata into a JSON or YAML document",
	Long: `
  ____  ____  __  __ ____    _____ _____ _____ ____ _   _ 
 |  _ \| __ )|  \/  |  _ \  |  ___| ____|_   _/ ___| | | |
 | | | |  _ \| |\/| | | | | | |_  |  _|   | || |   | |_| |
 | |_| | |_) | |  | | |_| | |  _| | |___  | || |___|  _  |
 |____/|____/|_|  |_|____/  |_|   |_____| |_| \____|_| |_|

DBMD FETCH - Relations, fields and keys of a live database, as one document.

Database types: ` + strings.Join(dialect.Tags(), ", ") + `
`,
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, args[0], args[1], args[2])
	},
}

func run(ctx context.Context, cfg *AppConfig, propsPath, dbType, outputPath string) error {
	d, err := dialect.GetDialect(dbType)
	if err != nil {
		return err
	}
	props, err := LoadConnProps(propsPath)
	if err != nil {
		return err
	}
	filter, err := cfg.Filter()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	logger.Info("fetching metadata",
		zap.String("connProps", propsPath),
		zap.String("dbType", d.Tag()),
		zap.String("include", filter.Include),
		zap.String("exclude", filter.Exclude),
		zap.String("output", outputPath))

	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	driver, dsn, err := props.DSN(d)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	logger.Info("connected", zap.String("dbType", d.Tag()), zap.String("driver", driver))

	if cfg.Progress {
		stop := showProgress(&opts)
		defer stop()
	}

	fetcher, err := fetch.New(d, cfg.UseGenericMd, filter, opts, logger)
	if err != nil {
		return err
	}
	start := time.Now()
	md, err := fetcher.Fetch(ctx, db)
	if err != nil {
		return err
	}
	if err := schema.WriteFile(outputPath, md); err != nil {
		return err
	}
	logger.Info("metadata written",
		zap.String("path", outputPath),
		zap.Int("relations", len(md.RelationMetadatas)),
		zap.Int("foreignKeys", len(md.ForeignKeys)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// showProgress renders a bar on stderr while foreign keys are read, table by table.
func showProgress(opts *schema.Options) (stop func()) {
	progress := uiprogress.New()
	progress.SetOut(os.Stderr)
	progress.Start()

	var bar *uiprogress.Bar
	opts.Progress = func(done, total int) {
		if bar == nil {
			bar = progress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return fmt.Sprintf("Foreign keys (%d/%d)", b.Current(), total)
			})
		}
		bar.Set(done)
	}
	return progress.Stop
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: unknown log level '%s'", schema.ErrConfig, level)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func Execute() {
	err := RootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./dbmd-fetch.yaml)")
	flags.String("log-level", "info", "debug, info, warn or error")

	local := RootCmd.Flags()
	local.String("include-regex", "", "relations to include, matched against schema.name")
	local.String("exclude-regex", "", "relations to exclude, matched against schema.name")
	local.String("include-regex-base64", "", "include pattern, base64 encoded")
	local.String("exclude-regex-base64", "", "exclude pattern, base64 encoded")
	local.String("schema", "", "only read relations of this schema")
	local.String("date-mapping", schema.DatesAsDriverReported.String(), "DATE columns: driver-reported, timestamps or dates")
	local.Bool("no-views", false, "leave views out")
	local.Bool("no-fks", false, "leave foreign keys out")
	local.Bool("use-generic-md", false, "always use catalog introspection, never the predefined query")
	local.Bool("progress", false, "show foreign key progress on stderr")
	local.Duration("timeout", 0, "abort the whole fetch after this long (0 = no limit)")

	for _, name := range []string{
		"include-regex", "exclude-regex", "include-regex-base64", "exclude-regex-base64",
		"schema", "date-mapping", "no-views", "no-fks", "use-generic-md", "progress", "timeout",
	} {
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), local.Lookup(name)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		panic(err)
	}

	setConfigDefaults(viper.GetViper())
	RootCmd.AddCommand(inspectCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("dbmd-fetch")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBMD")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}
