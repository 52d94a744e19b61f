// Package yamlcheck gates policy documents on YAML syntax before they are
// persisted. It deliberately knows nothing about Cilium policy fields.
package yamlcheck

import "gopkg.in/yaml.v3"

// SyntaxError carries the parser diagnostic for an unparseable document.
type SyntaxError struct {
	Detail string
}

func (e *SyntaxError) Error() string {
	return "invalid YAML syntax: " + e.Detail
}

// Validate parses text as a YAML document and reports syntax errors only.
// It is a pure function: the same input always yields the same verdict.
func Validate(text string) error {
	var doc interface{}
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return &SyntaxError{Detail: err.Error()}
	}
	return nil
}
