package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/catalog"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/config"
)

const (
	envPrefix      = "EMBEDRECORD"
	defaultCatalog = "catalog.yaml"
)

// app carries what subcommands share.
type app struct {
	v *viper.Viper
}

// newRootCmd builds the command tree. Settings come from flags first, then
// EMBEDRECORD_* environment variables, then defaults.
func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}

	root := &cobra.Command{
		Use:   "embedrecord",
		Short: "Inspect registry catalogs and their stored encodings",
		Long: `Inspect registry catalogs and their stored encodings.

A catalog file defines registries of fixed records. A single reference is
stored as the position of one record; a multi reference as a bitmask with
bit k set for the record at position k.

Examples:
  # List registries, then the records of one
  embedrecord list --catalog catalog.yaml
  embedrecord list colors

  # Encode ids into positions and a mask
  embedrecord encode colors red blue

  # Decode a stored mask, or a single position
  embedrecord decode colors 5
  embedrecord decode colors 2 --single`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("catalog", defaultCatalog, "catalog file (.yaml, .yml or .json)")
	root.PersistentFlags().Bool("verbose", false, "log registry and relation events to stderr")
	_ = v.BindPFlag("catalog", root.PersistentFlags().Lookup("catalog"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("catalog", defaultCatalog)

	root.AddCommand(a.listCmd(), a.encodeCmd(), a.decodeCmd())
	return root
}

// logger returns a debug logger on stderr when --verbose is set.
func (a *app) logger(cmd *cobra.Command) *slog.Logger {
	if !a.v.GetBool("verbose") {
		return nil
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (a *app) loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path := a.v.GetString("catalog")
	c, err := config.LoadCatalogFile(path, config.WithLogger(a.logger(cmd)))
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func (a *app) registry(cmd *cobra.Command, name string) (*embedrecord.Registry, error) {
	c, err := a.loadCatalog(cmd)
	if err != nil {
		return nil, err
	}
	r, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("registry %q not found; have %s", name, strings.Join(c.Names(), ", "))
	}
	return r, nil
}

// parseIDs reads command line ids as the registry's id kind.
func parseIDs(r *embedrecord.Registry, args []string) ([]embedrecord.ID, error) {
	kind, ok := r.IDType()
	if !ok {
		kind = embedrecord.KindSymbol
	}
	ids := make([]embedrecord.ID, 0, len(args))
	for _, arg := range args {
		id, err := embedrecord.ParseID(kind, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIDs(ids []embedrecord.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " ")
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
