package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func newAskCmd(client *Client) *cobra.Command {
	var source string
	var showRows bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a natural-language question about the stored orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Answer  string           `json:"answer"`
				Results []map[string]any `json:"results"`
			}
			body := map[string]string{"query": args[0]}
			if source != "" {
				body["dataSource"] = source
			}
			if err := client.PostJSON("/v1/query", body, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Answer)
			if showRows && len(out.Results) > 0 {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Results)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "data source (orders, orders_cz, orders_sk)")
	cmd.Flags().BoolVar(&showRows, "rows", false, "print the result rows as JSON")
	return cmd
}

func newUploadCmd(client *Client) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload XLSX/CSV order exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				FilesProcessed int   `json:"filesProcessed"`
				TotalRecords   int64 `json:"totalRecords"`
			}
			if err := client.UploadFiles("/v1/upload", source, args, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d file(s), %d records.\n",
				out.FilesProcessed, out.TotalRecords)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "data source (orders, orders_cz, orders_sk)")
	return cmd
}

func newStatusCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored row count and uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				TotalRecords int64 `json:"totalRecords"`
				Files        []struct {
					Filename   string `json:"filename"`
					RowCount   int64  `json:"rowCount"`
					UploadedAt string `json:"uploadedAt"`
				} `json:"files"`
			}
			if err := client.GetJSON("/v1/status", &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total records: %d\n", out.TotalRecords)
			for _, f := range out.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %d rows  %s\n", f.Filename, f.RowCount, f.UploadedAt)
			}
			return nil
		},
	}
}

func newExportCmd(client *Client) *cobra.Command {
	var out string
	var source string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download all orders as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/v1/export"
			if source != "" {
				path += "?dataSource=" + url.QueryEscape(source)
			}
			book, err := client.Download(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, book, 0o644); err != nil { //nolint:gosec // export file
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes).\n", out, len(book))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "export.xlsx", "output file path")
	cmd.Flags().StringVar(&source, "source", "", "data source (orders, orders_cz, orders_sk)")
	return cmd
}

func newClearCmd(client *Client) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored orders and file records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			var out struct {
				Message string `json:"message"`
			}
			if err := client.Delete("/v1/data", &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
