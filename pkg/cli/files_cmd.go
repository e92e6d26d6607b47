package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newFilesCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded analyzer files",
	}

	cmd.AddCommand(newFilesUploadCmd(client))
	cmd.AddCommand(newFilesListCmd(client))
	cmd.AddCommand(newFilesGetCmd(client))
	cmd.AddCommand(newFilesDeleteCmd(client))
	cmd.AddCommand(newFilesPushFactsCmd(client))

	return cmd
}

func newFilesUploadCmd(client *Client) *cobra.Command {
	var dialect string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload an analyzer file",
		Example: `  # Upload a Talend job export
  lineagehub files upload jobs/load_orders.xml --dialect talend`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			record, err := client.UploadFile(cmd.Context(), filepath.Base(args[0]), dialect, f)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), record)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", record.Filename, record.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "", "Source ETL tool (talend, informatica, sql, ...)")
	return cmd
}

func newFilesListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := client.ListFiles(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), records)
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.ID, r.Filename, r.Dialect, r.Status,
					fmt.Sprintf("%d", r.SizeBytes),
					r.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "FILENAME", "DIALECT", "STATUS", "SIZE", "CREATED"}, rows)
			return nil
		},
	}
}

func newFilesGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file-id>",
		Short: "Show one file's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := client.GetFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newFilesDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a file and drop it from the lineage graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newFilesPushFactsCmd(client *Client) *cobra.Command {
	var factsPath string

	cmd := &cobra.Command{
		Use:   "push-facts <file-id>",
		Short: "Replace the lineage facts for a file",
		Long:  "Push analyzer output (node and edge facts) for a file. The file is marked analyzed and joins the merged graph.",
		Example: `  # Push facts extracted by an external analyzer
  lineagehub files push-facts 4f7c... --facts facts.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(factsPath)
			if err != nil {
				return err
			}
			var facts FactsPayload
			if err := json.Unmarshal(data, &facts); err != nil {
				return fmt.Errorf("parse %s: %w", factsPath, err)
			}
			if err := client.PushFacts(cmd.Context(), args[0], facts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d nodes and %d edges for %s\n",
				len(facts.Nodes), len(facts.Edges), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&factsPath, "facts", "f", "", "Path to the facts JSON file (required)")
	_ = cmd.MarkFlagRequired("facts")
	return cmd
}
