// Command embedrecord inspects registry catalogs and encodes or decodes the
// positions and masks stored for references to them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	cmd := newRootCmd(viper.New())
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
