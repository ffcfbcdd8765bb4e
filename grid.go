package mideployer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// NewProductGrid creates a [Product] whose hostnames are generated from a
// template and dimensions using cartesian product expansion.
//
// Missing template keys cause an error (fail-fast). Hostnames are ordered by
// sorted dimension key, with each dimension's values in their given order.
//
// Example:
//
//	qa, err := NewProductGrid("CorporateTube",
//	    WithHostTemplate("test.{{.env}}.corporate.tube"),
//	    WithDimensions(map[string][]string{
//	        "env": {"qa1", "qa2", "qa3"},
//	    }),
//	)
//	// qa.Servers() = [test.qa1.corporate.tube test.qa2.corporate.tube test.qa3.corporate.tube]
func NewProductGrid(name string, opts ...GridOption) (Product, error) {
	if strings.TrimSpace(name) == "" {
		return Product{}, errors.New("product name cannot be empty")
	}

	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Product{}, err
		}
	}

	if cfg.hostTemplate == "" {
		return Product{}, errors.New("host template required")
	}
	if len(cfg.dimensions) == 0 {
		return Product{}, errors.New("at least one dimension required")
	}

	hosts, err := ExpandHosts(cfg.hostTemplate, cfg.dimensions)
	if err != nil {
		return Product{}, fmt.Errorf("product %q: %w", name, err)
	}

	return NewProduct(name, hosts...)
}

// ExpandHosts renders tmpl once for every combination of dimension values.
func ExpandHosts(tmpl string, dims map[string][]string) ([]string, error) {
	// missingkey=error for fail-fast behaviour
	t, err := template.New("host").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("invalid host template: %w", err)
	}

	combinations := cartesianProduct(dims)
	hosts := make([]string, 0, len(combinations))
	for _, combo := range combinations {
		host, err := executeTemplate(t, combo)
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}
	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// increment indices (rightmost first)
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

// executeTemplate renders the template with the given data.
func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
