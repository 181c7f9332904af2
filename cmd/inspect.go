package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dbmd-fetch/internal/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dbmd-file>",
	Short: "Summarize a metadata document: load order, primary and foreign keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := schema.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return printSummary(cmd.OutOrStdout(), md)
	},
}

func printSummary(w io.Writer, md *schema.StoredDatabaseMetadata) error {
	heading := color.New(color.Bold)
	version := md.DbmsVersion
	if version == "" {
		version = "?"
	}
	fmt.Fprintf(w, "%s %s, %d relations, %d foreign keys, case sensitivity %s\n",
		md.DbmsName, version, len(md.RelationMetadatas), len(md.ForeignKeys), md.CaseSensitivity)

	ordered, breakers := md.DependencyOrder()
	heading.Fprintln(w, "\nLoad order:")
	for i, id := range ordered {
		fmt.Fprintf(w, "  %3d. %s\n", i+1, id)
	}
	if len(breakers) > 0 {
		heading.Fprintln(w, "\nCycles broken at:")
		for _, id := range breakers {
			fmt.Fprintf(w, "  - %s\n", id)
		}
	}

	heading.Fprintln(w, "\nPrimary keys:")
	for _, rm := range md.RelationMetadatas {
		names, err := md.PrimaryKeyFieldNames(rm.RelationId, "")
		if err != nil {
			return err
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s (%s)\n", rm.RelationId, strings.Join(names, ", "))
	}

	if len(md.ForeignKeys) > 0 {
		heading.Fprintln(w, "\nForeign keys:")
		for i := range md.ForeignKeys {
			fk := &md.ForeignKeys[i]
			var pairs []string
			for _, c := range fk.Components {
				pairs = append(pairs, c.ForeignKeyFieldName+"="+c.PrimaryKeyFieldName)
			}
			fmt.Fprintf(w, "  %s [%s]\n", fk, strings.Join(pairs, ", "))
		}
	}
	return nil
}
