package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/podcast-mirror/tools/dashgen/dashboards"
	"github.com/donaldgifford/podcast-mirror/tools/dashgen/rules"
	"github.com/donaldgifford/podcast-mirror/tools/dashgen/validate"
)

// generatedHeader marks rule files as machine-generated.
const generatedHeader = "# Generated by tools/dashgen. Do not edit by hand.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config, validateOnly bool) error {
	dash, err := dashboards.BuildOverview().Build()
	if err != nil {
		return fmt.Errorf("building overview dashboard: %w", err)
	}

	result := validate.Dashboard(dash, KnownMetrics)

	recording := rules.RecordingRules()
	alerts := rules.AlertRules()
	for _, group := range append(recording.Spec.Groups, alerts.Spec.Groups...) {
		var exprs []string
		for _, rule := range group.Rules {
			exprs = append(exprs, rule.Expr)
		}
		groupResult := validate.Exprs(exprs, KnownMetrics)
		result.Errors = append(result.Errors, groupResult.Errors...)
		result.Warnings = append(result.Warnings, groupResult.Warnings...)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if !result.Ok() {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("%d validation errors", len(result.Errors))
	}

	if validateOnly {
		fmt.Println("validation passed")
		return nil
	}

	if cfg.DashboardEnabled {
		dashJSON, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling dashboard: %w", err)
		}
		dashJSON = append(dashJSON, '\n')

		path := filepath.Join(cfg.OutputDir, "grafana", "data", "pm-overview.json")
		if err := writeArtifact(path, dashJSON); err != nil {
			return err
		}
	}

	if cfg.RulesEnabled {
		for _, artifact := range []struct {
			name string
			cr   rules.PrometheusRule
		}{
			{"pm-recording-rules.yaml", recording},
			{"pm-alerts.yaml", alerts},
		} {
			data, err := yaml.Marshal(artifact.cr)
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", artifact.name, err)
			}
			data = append([]byte(generatedHeader), data...)

			path := filepath.Join(cfg.OutputDir, "prometheus", artifact.name)
			if err := writeArtifact(path, data); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
