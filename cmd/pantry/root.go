// Root command for the pantry CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantrydb/internal/paths"
	"github.com/mesh-intelligence/pantrydb/pkg/pantrydb"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDatabase  string
	flagJSON      bool
)

// configDatabase holds the database value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configDatabase string

// configCacheSize holds the stmt_cache_size value loaded from config.yaml.
var configCacheSize int

var rootCmd = &cobra.Command{
	Use:     "pantry",
	Short:   "Pantry is a CLI for PantryDB databases",
	Version: pantrydb.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDatabase = cfg.GetString(cfgKeyDatabase)
		configCacheSize = cfg.GetInt(cfgKeyStmtCacheSize)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "database file (default: $(CWD)/pantry.db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(columnsCmd)
}

// resolveDatabasePath returns the database file path following the
// precedence: --database flag > config.yaml database > PANTRYDB_DATABASE
// env > default $(CWD)/pantry.db.
func resolveDatabasePath() (string, error) {
	return paths.ResolveDatabasePath(flagDatabase, configDatabase)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > PANTRYDB_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// openConnection opens the resolved database with the configured cache
// size. The caller closes it.
func openConnection() (*pantrydb.Connection, error) {
	path, err := resolveDatabasePath()
	if err != nil {
		return nil, err
	}
	opts := []pantrydb.Option{}
	if configCacheSize > 0 {
		opts = append(opts, pantrydb.WithStmtCacheSize(configCacheSize))
	}
	return pantrydb.Connect(path, opts...)
}
