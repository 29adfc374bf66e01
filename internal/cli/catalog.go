package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print every SQL statement in execution order",
	Long: `Render the query catalog from the configuration file and print each
statement without connecting to a database. Statements are listed in the
order create-tables and etl run them.`,
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := catalog.New(cfg.CatalogConfig())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "-- dialect: %s\n", cat.Dialect())
	for _, s := range cat.All() {
		fmt.Fprintf(out, "\n-- %s (%s, %s)\n", s.Name, s.Kind, s.Table)
		if s.ClientSide && s.Source != nil {
			fmt.Fprintf(out, "-- streamed from %s\n", s.Source.Location)
		}
		fmt.Fprintln(out, strings.TrimSpace(s.SQL)+";")
	}
	return nil
}
