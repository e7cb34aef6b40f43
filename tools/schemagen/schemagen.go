// Package main writes the JSON schemas of the schemaconv configuration file
// and of batch reports, for editors and CI checks that consume them.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/schemaconv/pkg/config"
	"github.com/Sumatoshi-tech/schemaconv/pkg/convert"
)

var outputDir string

func main() {
	flag.StringVar(&outputDir, "o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	report, err := convert.ReportSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report schema: %v\n", err)
		os.Exit(1)
	}

	schemas := map[string][]byte{
		"config": config.Schema(),
		"report": report,
	}

	for name, schema := range schemas {
		if err := writeSchema(name, schema); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing schema for %s: %v\n", name, err)
			os.Exit(1)
		}

		fmt.Printf("Generated schema for %s\n", name)
	}

	fmt.Println("All schemas generated successfully")
}

func writeSchema(name string, schema []byte) error {
	path := filepath.Join(outputDir, name+".schema.json")

	return os.WriteFile(path, schema, 0o644)
}
