package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrReportFormat is returned for report paths that are neither JSON nor YAML.
var ErrReportFormat = errors.New("unsupported report format")

// WriteReport writes summary to name, as JSON or YAML by extension.
func WriteReport(name string, summary *Summary) error {
	data, err := MarshalReport(filepath.Ext(name), summary)
	if err != nil {
		return err
	}

	err = os.WriteFile(name, data, filePerm)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// MarshalReport encodes summary for the extension ext (".json", ".yaml" or
// ".yml").
func MarshalReport(ext string, summary *Summary) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal report: %w", err)
		}

		return append(data, '\n'), nil
	case ".yaml", ".yml":
		data, err := yaml.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("marshal report: %w", err)
		}

		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrReportFormat, ext)
	}
}
