package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [registry]",
		Short: "List registries, or the records of one registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				r, err := a.registry(cmd, args[0])
				if err != nil {
					return err
				}
				return listRecords(cmd, r)
			}

			c, err := a.loadCatalog(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fprintf(w, "REGISTRY\tRECORDS\tID TYPE\tNULL RECORD\n")
			c.Range(func(name string, r *embedrecord.Registry) bool {
				kind := "-"
				if k, ok := r.IDType(); ok {
					kind = k.String()
				}
				_, hasNull := r.NullRecord()
				fprintf(w, "%s\t%d\t%s\t%t\n", name, r.Len(), kind, hasNull)
				return true
			})
			return w.Flush()
		},
	}
}

func listRecords(cmd *cobra.Command, r *embedrecord.Registry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fprintf(w, "POSITION\tID\tATTRIBUTES\n")
	for _, rec := range r.All() {
		fprintf(w, "%d\t%s\t%s\n", rec.Position(), rec.ID(), formatAttrs(rec))
	}
	if null, ok := r.NullRecord(); ok {
		fprintf(w, "-\t%s\t%s\n", null.ID(), formatAttrs(null))
	}
	return w.Flush()
}

func formatAttrs(rec *embedrecord.Record) string {
	attrs := rec.Attrs()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, attrs[k])
	}
	return strings.Join(parts, " ")
}
