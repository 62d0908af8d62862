package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/config"
	"github.com/mvp-joe/cyagen/internal/logging"
)

var (
	cfgFile   string
	verbose   bool
	quietFlag bool
)

// rootCmd generates files from a C source when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "cyagen",
	Short: "Generate files from the facts of a C source file",
	Long: `cyagen extracts includes, typedefs, static variables, functions and nested
calls from a C source file and either exports them as JSON/YAML or renders a
template tree with them.

Templates use @tag@ blocks and placeholders. Templates ending in .tera, .j2 or
.njk are rendered with Jinja syntax instead. Text between
"MANUAL SECTION: <id>" and "MANUAL SECTION END" in existing outputs is kept.

Examples:
  # Render every template below templates/ into out/
  cyagen -s src/motor.c -t templates -o out

  # Export the facts as JSON
  cyagen -s src/motor.c -j build/@sourcename@.json

  # Regenerate whenever the source or a template changes
  cyagen -s src/motor.c -t templates -o out --watch
`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runGenerate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .cyagen.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

// setup loads the configuration and builds the logger shared by all commands.
func setup() (*config.Config, *zap.Logger, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(rootDir, opts...).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(verbose, quietFlag)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
