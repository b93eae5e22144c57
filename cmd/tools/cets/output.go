package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}
}

// textWriter is implemented by outputs with a human-readable rendering
type textWriter interface {
	writeText(w io.Writer) error
}

func render(w io.Writer, format string, v textWriter) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return v.writeText(w)
	}
}
