package main

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
)

func (a *app) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <registry> <id>...",
		Short: "Print the positions and mask stored for ids",
		Long: `Print the positions and mask stored for ids.

Ids are read as the registry's id type; a leading ":" on a symbol is
optional. Every id must name a record. The mask is printed only when the
registry fits in a multi reference.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.registry(cmd, args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDs(r, args[1:])
			if err != nil {
				return err
			}

			logger := a.logger(cmd)
			one, err := embedrecord.BindOne(r.Name(), r, nullableSelf(), embedrecord.WithLogger(logger))
			if err != nil {
				return err
			}
			positions, err := one.Positions(ids...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			parts := make([]string, len(positions))
			for i, p := range positions {
				parts[i] = strconv.FormatInt(p, 10)
			}
			fprintf(out, "positions: %s\n", strings.Join(parts, " "))

			many, err := embedrecord.BindMany(r.Name(), r, intSelf(), embedrecord.WithLogger(logger))
			if err != nil {
				fprintf(out, "mask: n/a (%v)\n", err)
				return nil
			}
			fprintf(out, "mask: %d\n", many.Mask(ids...))
			return nil
		},
	}
}

// nullableSelf stores a single reference in the host value itself.
func nullableSelf() embedrecord.Slot[*sql.NullInt64] {
	return embedrecord.NullableSlot(func(n *sql.NullInt64) *sql.NullInt64 { return n })
}

// intSelf stores a multi reference in the host value itself.
func intSelf() embedrecord.Slot[*int64] {
	return embedrecord.IntSlot(func(n *int64) *int64 { return n })
}
