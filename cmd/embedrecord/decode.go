package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
)

func (a *app) decodeCmd() *cobra.Command {
	var single bool

	cmd := &cobra.Command{
		Use:   "decode <registry> <value>",
		Short: "Print the ids a stored value refers to",
		Long: `Print the ids a stored value refers to.

By default value is a multi reference mask and the ids of its set bits are
printed in position order. With --single, value is a position; "null" reads
as an unset slot. Values the registry cannot resolve fall back to its null
record, or print nothing when it has none.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.registry(cmd, args[0])
			if err != nil {
				return err
			}
			logger := a.logger(cmd)
			out := cmd.OutOrStdout()

			if single {
				slot, err := parseSlot(args[1])
				if err != nil {
					return err
				}
				one, err := embedrecord.BindOne(r.Name(), r, nullableSelf(), embedrecord.WithLogger(logger))
				if err != nil {
					return err
				}
				if id, ok := one.GetID(&slot); ok {
					fprintf(out, "%s\n", id)
				}
				return nil
			}

			mask, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("mask %q is not an integer", args[1])
			}
			many, err := embedrecord.BindMany(r.Name(), r, intSelf(), embedrecord.WithLogger(logger))
			if err != nil {
				return err
			}
			if ids := many.GetIDs(&mask); len(ids) > 0 {
				fprintf(out, "%s\n", joinIDs(ids))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&single, "single", "s", false, "decode a single reference position")
	return cmd
}

func parseSlot(text string) (sql.NullInt64, error) {
	if text == "null" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("position %q is not an integer", text)
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}
