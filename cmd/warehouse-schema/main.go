// Command warehouse-schema writes the JSON schema of the warehouse save file.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"samplevault/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stderr))
}

func cli(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("warehouse-schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var outPath string
	fs.StringVar(&outPath, "out", "", "path to write the JSON schema")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if outPath == "" {
		_, _ = fmt.Fprintln(stderr, "--out is required")
		return 1
	}
	if err := writeSchema(outPath, buildSchema()); err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to write schema: %v\n", err)
		return 1
	}
	return 0
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(domain.WarehouseSnapshot))
	schema.Title = "Sample Vault Warehouse"
	schema.Description = "Validates the persisted warehouse save file"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
