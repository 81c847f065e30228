package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/query"
	"github.com/devboardhq/devboard/internal/storage"
)

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices, optionally filtered",
	Long: `List devices, optionally filtered.

Examples:
  devboard list
  devboard list --status faulty
  devboard list --location "building a" --search lens`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		location, _ := cmd.Flags().GetString("location")
		search, _ := cmd.Flags().GetString("search")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		params := url.Values{}
		if status != "" {
			params.Set("status", status)
		}
		if location != "" {
			params.Set("location", location)
		}
		if search != "" {
			params.Set("q", search)
		}
		path := "/devices"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var devices storage.Table
		if err := decodeJSON(resp, &devices); err != nil {
			return err
		}

		if len(devices) == 0 {
			fmt.Println("No devices found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tLOCATION\tSTATUS\tASSIGNED TO")
		for _, d := range devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.DeviceName, d.DeviceType, d.Location, d.Status, d.AssignedTo)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().String("status", "", "exact status to filter by")
	listCmd.Flags().String("location", "", "location substring to filter by")
	listCmd.Flags().String("search", "", "free-text search over name and notes")
}

// --- get ---

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single device as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/devices/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var device any
		if err := decodeJSON(resp, &device); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(device)
	},
}

// --- add ---

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a device record",
	Long: `Add a device record.

Examples:
  devboard add --name cam-entrance --type camera --location "Building A" --status faulty
  devboard add --id CAM-042 --name cam-garage --notes "lens cracked"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := storage.Record{}
		rec.ID, _ = cmd.Flags().GetString("id")
		rec.DeviceName, _ = cmd.Flags().GetString("name")
		rec.DeviceType, _ = cmd.Flags().GetString("type")
		rec.Location, _ = cmd.Flags().GetString("location")
		rec.Status, _ = cmd.Flags().GetString("status")
		rec.LastInspection, _ = cmd.Flags().GetString("last-inspection")
		rec.Notes, _ = cmd.Flags().GetString("notes")
		rec.AssignedTo, _ = cmd.Flags().GetString("assigned-to")

		if rec.DeviceName == "" {
			return fmt.Errorf("--name is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/devices", rec)
		if err != nil {
			return err
		}

		var created storage.Record
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Added device %s", created.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().String("id", "", "device id (generated when omitted)")
	addCmd.Flags().String("name", "", "device name")
	addCmd.Flags().String("type", "", "device type")
	addCmd.Flags().String("location", "", "device location")
	addCmd.Flags().String("status", "", "status (faulty, repaired, awaiting PO, inspected, unknown)")
	addCmd.Flags().String("last-inspection", "", "last inspection date")
	addCmd.Flags().String("notes", "", "free-form notes")
	addCmd.Flags().String("assigned-to", "", "person responsible")
}

// --- edit ---

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit every device row matching an id",
	Long: `Edit every device row matching an id.

Examples:
  devboard edit CAM-042 --set status=repaired
  devboard edit CAM-042 --set status=repaired --set "notes=swapped lens"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		if len(sets) == 0 {
			return fmt.Errorf("at least one --set key=value is required")
		}

		changes := make(map[string]string, len(sets))
		for _, s := range sets {
			key, value, ok := strings.Cut(s, "=")
			if !ok {
				return fmt.Errorf("invalid --set %q, want key=value", s)
			}
			changes[key] = value
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/devices/"+url.PathEscape(args[0]), changes)
		if err != nil {
			return err
		}

		var result struct {
			Rows int `json:"rows"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Updated %d row(s) with id %s", result.Rows, args[0])
		return nil
	},
}

func init() {
	editCmd.Flags().StringArray("set", nil, "column=value change (repeatable)")
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete every device row matching an id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/devices/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted device %s", args[0])
		return nil
	},
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the whole table from a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.upload(cmd.Context(), "/import", args[0])
		if err != nil {
			return err
		}

		var result struct {
			Rows int `json:"rows"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Imported %d row(s) from %s", result.Rows, args[0])
		return nil
	},
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the table as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "devices_export." + format
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/export?format="+url.QueryEscape(format))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if _, err := f.ReadFrom(resp.Body); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		printSuccess("Exported table to %s", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "export format: csv or xlsx")
	exportCmd.Flags().String("output", "", "output file path (default: devices_export.<format>)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration (tokens redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		for _, kv := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, kv.Key), kv.Value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show device counts grouped by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/stats/status")
		if err != nil {
			return err
		}

		var counts []query.StatusCount
		if err := decodeJSON(resp, &counts); err != nil {
			return err
		}

		if len(counts) == 0 {
			fmt.Println("No devices recorded.")
			return nil
		}

		for _, c := range counts {
			label := c.Status
			if label == "" {
				label = "(no status)"
			}
			printStatus(label, "%d", c.Count)
		}
		return nil
	},
}
