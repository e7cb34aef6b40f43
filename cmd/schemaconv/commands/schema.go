package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/schemaconv/pkg/config"
	"github.com/Sumatoshi-tech/schemaconv/pkg/convert"
)

// ErrUnknownSchema is returned for schema names other than config and report.
var ErrUnknownSchema = errors.New("unknown schema: want config or report")

// NewSchemaCommand creates the command printing the JSON schemas of the
// configuration file and of reports.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "schema {config|report}",
		Short:     "Print the JSON schema of the config file or of reports",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"config", "report"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				schema []byte
				err    error
			)

			switch args[0] {
			case "config":
				schema = config.Schema()
			case "report":
				schema, err = convert.ReportSchema()
			default:
				return fmt.Errorf("%w: %q", ErrUnknownSchema, args[0])
			}

			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(schema)

			return err
		},
	}
}
