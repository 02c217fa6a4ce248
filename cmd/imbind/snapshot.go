package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"imbind/internal/frontend"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Summarize a front-end snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		if format != "pretty" && format != "json" {
			return usageError(fmt.Errorf("unsupported format %q (must be pretty or json)", format))
		}
		snap, err := frontend.Read(args[0])
		if err != nil {
			return err
		}
		s := summarize(snap)
		if format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		s.write(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	snapshotCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type snapshotSummary struct {
	Schema      uint16         `json:"schema"`
	Files       []string       `json:"files"`
	InScope     int            `json:"in_scope"`
	Types       int            `json:"types"`
	Decls       map[string]int `json:"decls"`
	Macros      int            `json:"macros"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
}

func summarize(s *frontend.Snapshot) snapshotSummary {
	out := snapshotSummary{
		Schema: s.Schema,
		Types:  len(s.Types),
		Decls:  make(map[string]int),
		Macros: len(s.Macros),
	}
	for _, f := range s.Files {
		out.Files = append(out.Files, f.Path)
		if f.InScope {
			out.InScope++
		}
	}
	var count func(ds []frontend.SnapshotDecl)
	count = func(ds []frontend.SnapshotDecl) {
		for i := range ds {
			out.Decls[ds[i].Kind]++
			count(ds[i].Children)
		}
	}
	count(s.Decls)
	for _, d := range s.Diagnostics {
		loc := d.File
		if loc != "" && d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, d.Line)
		}
		if loc != "" {
			loc += ": "
		}
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("%s%s: %s", loc, d.Severity, d.Message))
	}
	return out
}

func (s snapshotSummary) write(w io.Writer) {
	fmt.Fprintf(w, "schema %d, %d files (%d in scope), %d types, %d macros\n",
		s.Schema, len(s.Files), s.InScope, s.Types, s.Macros)
	kinds := make([]string, 0, len(s.Decls))
	for k := range s.Decls {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-14s %6d\n", k, s.Decls[k])
	}
	if len(s.Diagnostics) > 0 {
		fmt.Fprintf(w, "%d front-end diagnostics:\n", len(s.Diagnostics))
		for _, d := range s.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}
