package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportDocument is the full work-order set as written by Export.
type ExportDocument struct {
	ExportedAt string      `json:"exportedAt" yaml:"exportedAt"`
	Count      int         `json:"count" yaml:"count"`
	WorkOrders []WorkOrder `json:"workOrders" yaml:"workOrders"`
}

// Export writes every work order in the current snapshot to w as JSON or
// YAML.
func (s *Service) Export(ctx context.Context, w io.Writer, format string) error {
	v, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	doc := ExportDocument{
		ExportedAt: now.UTC().Format(dateTimeFormat),
		Count:      len(v.Orders),
		WorkOrders: FromWorkOrders(v.Orders, now),
	}
	return Encode(w, format, doc)
}

// Encode writes value in the requested format.
func Encode(w io.Writer, format string, value any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q (use json or yaml)", format)
	}
}
