// Package formats manages the bank format registry
package formats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/registry"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Cmd represents the formats command
var Cmd = &cobra.Command{
	Use:   "formats",
	Short: "Manage the bank format registry",
	Long: `List, inspect and edit the bank formats used to recognize statements.

Formats are read from the registry file (registry.file, formats.yaml by
default). add and update take a YAML file holding one format descriptor.

Example:
  ekstre-csv formats list
  ekstre-csv formats add denizbank.yaml
  ekstre-csv formats deactivate akbank`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all formats",
	Args:  cobra.NoArgs,
	RunE: withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		all, err := reg.All()
		if err != nil {
			return err
		}
		return writeList(cmd.OutOrStdout(), all)
	}),
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one format as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		f, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal format: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}),
}

var addCmd = &cobra.Command{
	Use:   "add <file.yaml>",
	Short: "Add a format from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		f, err := readDescriptor(args[0])
		if err != nil {
			return err
		}
		if err := reg.Add(f); err != nil {
			return err
		}
		cmd.Printf("Added format %s\n", f.ID)
		return nil
	}),
}

var updateCmd = &cobra.Command{
	Use:   "update <file.yaml>",
	Short: "Replace a format with the one in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		f, err := readDescriptor(args[0])
		if err != nil {
			return err
		}
		if err := reg.Update(f.ID, f); err != nil {
			return err
		}
		cmd.Printf("Updated format %s\n", f.ID)
		return nil
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a format",
	Args:  cobra.ExactArgs(1),
	RunE: withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		if err := reg.Delete(args[0]); err != nil {
			return err
		}
		cmd.Printf("Removed format %s\n", args[0])
		return nil
	}),
}

var activateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Let a format take part in classification",
	Args:  cobra.ExactArgs(1),
	RunE:  setActive(true),
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Keep a format out of classification",
	Args:  cobra.ExactArgs(1),
	RunE:  setActive(false),
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Overwrite the registry with the built-in formats",
	Args:  cobra.NoArgs,
	RunE: withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		if err := reg.ResetDefaults(); err != nil {
			return err
		}
		cmd.Printf("Wrote %d built-in formats to %s\n", len(registry.DefaultFormats()), reg.Path())
		return nil
	}),
}

func init() {
	Cmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, removeCmd, activateCmd, deactivateCmd, initCmd)
}

func withRegistry(run func(cmd *cobra.Command, reg *registry.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return common.ErrNoContainer
		}
		return run(cmd, c.GetRegistry(), args)
	}
}

func setActive(active bool) func(*cobra.Command, []string) error {
	return withRegistry(func(cmd *cobra.Command, reg *registry.Store, args []string) error {
		if err := reg.SetActive(args[0], active); err != nil {
			return err
		}
		state := "Deactivated"
		if active {
			state = "Activated"
		}
		cmd.Printf("%s format %s\n", state, args[0])
		return nil
	})
}

func readDescriptor(path string) (models.FormatDescriptor, error) {
	var f models.FormatDescriptor
	// #nosec G304 -- descriptor path is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read format file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to parse format file %s: %w", path, err)
	}
	return f, nil
}

func writeList(w io.Writer, formats []models.FormatDescriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tCOLUMNS")
	for _, f := range formats {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", f.ID, f.Name, f.Active, columns(f))
	}
	return tw.Flush()
}

func columns(f models.FormatDescriptor) string {
	var parts []string
	for _, c := range []struct{ name, col string }{
		{"date", f.DateCol},
		{"description", f.DescriptionCol},
		{"amount", f.AmountCol},
		{"debit", f.DebitCol},
		{"credit", f.CreditCol},
		{"balance", f.BalanceCol},
	} {
		if c.col != "" {
			parts = append(parts, c.name+"="+c.col)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
