package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cyagen/internal/callgraph"
	"github.com/mvp-joe/cyagen/internal/facts"
	"github.com/mvp-joe/cyagen/internal/parser"
)

var (
	graphSource   string
	graphDOT      bool
	graphFunction string
	graphDepth    int
)

// graphCmd prints the call graph of a source file
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the call graph of a C source file",
	Long: `Graph builds the call graph from the nested calls found in a C source file.

Without flags every function is listed with its direct callees, followed by
the groups of recursive functions.

Examples:
  # List callers and their callees
  cyagen graph -s src/motor.c

  # Render with Graphviz
  cyagen graph -s src/motor.c --dot | dot -Tsvg > motor.svg

  # Everything Motor_Init reaches within two calls, and what reaches it
  cyagen graph -s src/motor.c --function Motor_Init --depth 2
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		m, err := parseSource(parser.New(cfg.ParserOptions(logger)), graphSource)
		if err != nil {
			return err
		}
		return printGraph(cmd.OutOrStdout(), m, graphOptions{
			dot:      graphDOT,
			function: graphFunction,
			depth:    graphDepth,
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&graphSource, "source", "s", "", "C source file")
	graphCmd.Flags().BoolVar(&graphDOT, "dot", false, "Print Graphviz DOT instead of text")
	graphCmd.Flags().StringVarP(&graphFunction, "function", "f", "", "Only show the callers and callees of this function")
	graphCmd.Flags().IntVarP(&graphDepth, "depth", "d", 1, "Number of calls to follow with --function")
	_ = graphCmd.MarkFlagRequired("source")
}

type graphOptions struct {
	dot      bool
	function string
	depth    int
}

func printGraph(out io.Writer, m *facts.Model, opts graphOptions) error {
	g, err := callgraph.Build(m)
	if err != nil {
		return fmt.Errorf("failed to build call graph: %w", err)
	}

	if opts.dot {
		return g.WriteDOT(out)
	}

	if opts.function != "" {
		callees, err := g.Callees(opts.function, opts.depth)
		if err != nil {
			return err
		}
		callers, err := g.Callers(opts.function, opts.depth)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "callees: %s\n", joinOrNone(callees))
		fmt.Fprintf(out, "callers: %s\n", joinOrNone(callers))
		return nil
	}

	names, err := g.Functions()
	if err != nil {
		return err
	}
	for _, name := range names {
		callees, err := g.Callees(name, 1)
		if err != nil {
			return err
		}
		if len(callees) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", name, strings.Join(callees, ", "))
	}

	groups, err := g.Recursive()
	if err != nil {
		return err
	}
	for _, group := range groups {
		fmt.Fprintf(out, "recursive: %s\n", strings.Join(group, ", "))
	}
	return nil
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
