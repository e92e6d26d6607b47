package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newGraphCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Fetch the merged lineage graph",
		Args:  cobra.NoArgs,
	}
	q := graphQueryFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		result, err := client.Graph(cmd.Context(), *q)
		if err != nil {
			return err
		}

		if getOutputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), result)
		}

		g := result.Graph
		fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d edges\n", g.Stats.TotalNodes, g.Stats.TotalEdges)
		rows := make([][]string, 0, len(g.Edges))
		for _, e := range g.Edges {
			rows = append(rows, []string{e.Source, string(e.Relationship), e.Target})
		}
		printTable(cmd.OutOrStdout(), []string{"SOURCE", "RELATIONSHIP", "TARGET"}, rows)
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.FileID, w.Message)
		}
		return nil
	}
	return cmd
}

func newInsightsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show graph analytics: hotspots, orphans, read/write patterns",
		Args:  cobra.NoArgs,
	}
	q := graphQueryFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		insights, err := client.Insights(cmd.Context(), *q)
		if err != nil {
			return err
		}

		if getOutputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), insights)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d nodes, %d edges\n\n", insights.TotalNodes, insights.TotalEdges)

		if len(insights.MostConnected) > 0 {
			fmt.Fprintln(out, "Most connected tables:")
			rows := make([][]string, 0, len(insights.MostConnected))
			for _, t := range insights.MostConnected {
				rows = append(rows, []string{t.Name, fmt.Sprintf("%d", t.Degree),
					strings.Join(t.CreatedBy, ","), strings.Join(t.ReadBy, ",")})
			}
			printTable(out, []string{"TABLE", "DEGREE", "CREATED BY", "READ BY"}, rows)
		}
		if len(insights.TablesOnlyRead) > 0 {
			fmt.Fprintf(out, "\nOnly read (defined elsewhere): %s\n", strings.Join(insights.TablesOnlyRead, ", "))
		}
		if len(insights.TablesNeverRead) > 0 {
			fmt.Fprintf(out, "Never read (possible dead ends): %s\n", strings.Join(insights.TablesNeverRead, ", "))
		}
		if len(insights.OrphanedNodes) > 0 {
			names := make([]string, 0, len(insights.OrphanedNodes))
			for _, n := range insights.OrphanedNodes {
				names = append(names, n.Name)
			}
			fmt.Fprintf(out, "Orphaned: %s\n", strings.Join(names, ", "))
		}
		return nil
	}
	return cmd
}

func newSearchCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search nodes and trace upstream/downstream impact",
		Args:  cobra.ExactArgs(1),
	}
	q := graphQueryFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		result, err := client.Search(cmd.Context(), args[0], *q)
		if err != nil {
			return err
		}

		if getOutputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), result)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d nodes match %q\n", len(result.MatchedNodes), result.Query)
		for _, p := range result.Paths {
			fmt.Fprintf(out, "\n%s (%s)\n", p.MatchedNode.Name, p.MatchedNode.ID)
			fmt.Fprintf(out, "  upstream: %d, downstream: %d, centrality: %.2f\n",
				len(p.UpstreamNodes), len(p.DownstreamNodes), p.CentralityScore)
		}
		return nil
	}
	return cmd
}

func newPlanCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Derive the wave-based migration order",
		Long:  "Compute the order in which ETL files can be migrated: files in the same wave have no dependencies on each other and every file's providers land in an earlier wave.",
		Args:  cobra.NoArgs,
	}
	q := graphQueryFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		plan, err := client.MigrationOrder(cmd.Context(), *q)
		if err != nil {
			return err
		}

		if getOutputFormat(cmd) == "json" {
			return printJSON(cmd.OutOrStdout(), plan)
		}

		out := cmd.OutOrStdout()
		for _, group := range plan.Groups {
			if len(plan.Groups) > 1 {
				fmt.Fprintf(out, "Group %d (%d files):\n", group.GroupID, group.Files)
			}
			for _, wave := range group.Waves {
				fmt.Fprintf(out, "Wave %d:\n", wave.Wave)
				for _, f := range wave.Files {
					fmt.Fprintf(out, "  %s - %s\n", f.Filename, f.Rationale)
				}
			}
		}
		for _, c := range plan.CycleInfo {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", c)
		}
		return nil
	}
	return cmd
}

func newExportCmd(client *Client) *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as json, csv, or graphml",
		Args:  cobra.NoArgs,
	}
	q := graphQueryFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		if err := client.Export(cmd.Context(), w, format, *q); err != nil {
			return err
		}
		if outPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s export to %s\n", format, outPath)
		}
		return nil
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format (json, csv, graphml)")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "Write to file instead of stdout")
	return cmd
}
