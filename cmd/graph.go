package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medflow-cli/internal/graph"
)

var (
	graphMaxNodes   int
	graphThreshold  int64
	graphOutputPath string
	graphFilter     filterFlags
)

var graphCmd = &cobra.Command{
	Use:   "graph <file|->",
	Short: "Build the supplier → category → customer flow graph as JSON",
	Example: `  medflow graph deliveries.json --max-nodes 50
  medflow graph deliveries.csv --edge-threshold 10 --output graph.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if graphThreshold < 0 {
			return errors.New("--edge-threshold must be >= 0")
		}
		maxNodes := graphMaxNodes
		if !cmd.Flags().Changed("max-nodes") {
			maxNodes = currentConfig().MaxNodes
		}
		_, rows, err := loadRows(cmd, args[0], &graphFilter)
		if err != nil {
			return err
		}
		g := graph.Build(rows, graph.Options{MaxNodes: maxNodes, MinLinkWeight: graphThreshold})
		if g.Meta.Stats.RetainedNodes < g.Meta.Stats.TotalNodes {
			cmd.PrintErrf("⚠ Warning: kept %d of %d nodes (raise --max-nodes to keep more)\n",
				g.Meta.Stats.RetainedNodes, g.Meta.Stats.TotalNodes)
		}
		return writeJSON(cmd, graphOutputPath, g)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().IntVar(&graphMaxNodes, "max-nodes", graph.DefaultMaxNodes, "keep at most this many heaviest nodes (config: max_nodes)")
	graphCmd.Flags().Int64Var(&graphThreshold, "edge-threshold", 0, "drop links lighter than this quantity (0 keeps all)")
	graphCmd.Flags().StringVarP(&graphOutputPath, "output", "o", "", "write to file instead of stdout")
	graphFilter.bind(graphCmd)
}
