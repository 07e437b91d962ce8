package xmlutils

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/xmlpath.v2"
)

// ParseDocument parses raw XML bytes into an xmlpath root node.
func ParseDocument(raw []byte) (*xmlpath.Node, error) {
	root, err := xmlpath.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return root, nil
}

// Nodes returns every node matched by xpath under root.
func Nodes(root *xmlpath.Node, xpath string) ([]*xmlpath.Node, error) {
	path, err := xmlpath.Compile(xpath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile XPath %q: %w", xpath, err)
	}

	var nodes []*xmlpath.Node
	iter := path.Iter(root)
	for iter.Next() {
		nodes = append(nodes, iter.Node())
	}
	return nodes, nil
}

// ExtractFromXML extracts the text of every node matched by xpath.
func ExtractFromXML(root *xmlpath.Node, xpath string) ([]string, error) {
	nodes, err := Nodes(root, xpath)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, n.String())
	}
	return values, nil
}

// Evaluator caches compiled paths so they can be evaluated on many nodes.
type Evaluator struct {
	paths map[string]*xmlpath.Path
}

// NewEvaluator returns an empty Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{paths: make(map[string]*xmlpath.Path)}
}

// First returns the cleaned text of the first node matched by xpath under
// node, or "" when nothing matches.
func (e *Evaluator) First(node *xmlpath.Node, xpath string) string {
	path, ok := e.paths[xpath]
	if !ok {
		path = xmlpath.MustCompile(xpath)
		e.paths[xpath] = path
	}
	value, ok := path.String(node)
	if !ok {
		return ""
	}
	return CleanText(value)
}

// FirstOf returns the first non-empty result of the given paths.
func (e *Evaluator) FirstOf(node *xmlpath.Node, xpaths ...string) string {
	for _, xpath := range xpaths {
		if v := e.First(node, xpath); v != "" {
			return v
		}
	}
	return ""
}

// All returns the cleaned text of every node matched by xpath under node,
// skipping empty values.
func (e *Evaluator) All(node *xmlpath.Node, xpath string) []string {
	path, ok := e.paths[xpath]
	if !ok {
		path = xmlpath.MustCompile(xpath)
		e.paths[xpath] = path
	}
	var values []string
	iter := path.Iter(node)
	for iter.Next() {
		if v := CleanText(iter.Node().String()); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// CleanText collapses whitespace runs into single spaces and trims the result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
