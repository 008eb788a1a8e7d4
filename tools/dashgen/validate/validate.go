// Package validate checks generated dashboards and rules for PromQL
// syntax errors and references to unknown metrics.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings. Errors are unparsable expressions;
// Warnings are references to metrics outside the known set.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Dashboard validates every query expression in a built dashboard against
// PromQL syntax and the known metric set.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	data, err := json.Marshal(dash)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("marshal dashboard: %v", err)}}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{Errors: []string{fmt.Sprintf("unmarshal dashboard: %v", err)}}
	}

	return Exprs(collectExprs(doc), known)
}

// Exprs validates a list of PromQL expressions against syntax and the
// known metric set.
func Exprs(exprs []string, known map[string]bool) Result {
	var result Result
	seen := map[string]bool{}

	for _, expr := range exprs {
		parsed, err := parser.ParseExpr(expr)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid PromQL %q: %v", expr, err))
			continue
		}

		parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
			vs, ok := node.(*parser.VectorSelector)
			if !ok || vs.Name == "" {
				return nil
			}
			name := baseMetricName(vs.Name)
			if !known[name] && !seen[name] {
				seen[name] = true
				result.Warnings = append(result.Warnings, fmt.Sprintf("unknown metric %q in %q", vs.Name, expr))
			}
			return nil
		})
	}

	return result
}

// collectExprs walks a decoded JSON document and gathers every string
// value stored under an "expr" key.
func collectExprs(doc any) []string {
	var exprs []string
	switch v := doc.(type) {
	case map[string]any:
		for key, val := range v {
			if key == "expr" {
				if s, ok := val.(string); ok && s != "" {
					exprs = append(exprs, s)
					continue
				}
			}
			exprs = append(exprs, collectExprs(val)...)
		}
	case []any:
		for _, item := range v {
			exprs = append(exprs, collectExprs(item)...)
		}
	}
	return exprs
}

// baseMetricName strips histogram series suffixes so that expressions over
// _bucket, _sum, and _count series validate against the base metric name.
func baseMetricName(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
