package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NodeKind identifies which shape a structured-data Node has
type NodeKind int

const (
	// ScalarNode holds a string, number, boolean or null
	ScalarNode NodeKind = iota
	// ListNode holds an ordered list of nodes
	ListNode
	// MappingNode holds keyed nodes in document order
	MappingNode
)

// Field is one key/value pair of a mapping node
type Field struct {
	Key   string
	Value *Node
}

// Node is a JSON-LD value. Exactly one of Scalar, List or Fields is meaningful,
// depending on Kind.
type Node struct {
	Kind   NodeKind
	Scalar interface{} // string, json.Number, bool or nil
	List   []*Node
	Fields []Field
}

// ParseNode decodes a JSON document into a Node tree, keeping mapping keys in
// the order they appear in the source.
func ParseNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}

	// reject trailing content such as two concatenated objects
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return node, nil
}

func decodeNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '[':
			node := &Node{Kind: ListNode}
			for dec.More() {
				child, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				node.List = append(node.List, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '{':
			node := &Node{Kind: MappingNode}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				child, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				node.Fields = append(node.Fields, Field{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	default:
		return &Node{Kind: ScalarNode, Scalar: v}, nil
	}
}

// Get returns the value stored under key in a mapping node, or nil
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != MappingNode {
		return nil
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// String returns the text of a string scalar
func (n *Node) String() (string, bool) {
	if n == nil || n.Kind != ScalarNode {
		return "", false
	}
	s, ok := n.Scalar.(string)
	return s, ok
}

// Float returns the value of a numeric scalar, also accepting numeric strings
func (n *Node) Float() (float64, bool) {
	if n == nil || n.Kind != ScalarNode {
		return 0, false
	}

	var raw string
	switch v := n.Scalar.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	default:
		return 0, false
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// First returns the first element of a list node, or the node itself otherwise
func (n *Node) First() *Node {
	if n != nil && n.Kind == ListNode {
		if len(n.List) == 0 {
			return nil
		}
		return n.List[0]
	}
	return n
}

// HasType reports whether a mapping node declares typeName in its "@type",
// either as the single value or as a member of a list.
func (n *Node) HasType(typeName string) bool {
	declared := n.Get("@type")
	if declared == nil {
		return false
	}

	if s, ok := declared.String(); ok {
		return s == typeName
	}
	if declared.Kind == ListNode {
		for _, item := range declared.List {
			if s, ok := item.String(); ok && s == typeName {
				return true
			}
		}
	}
	return false
}

// FindProductNodes returns every mapping node typed "Product", depth-first in
// pre-order: a node comes before its descendants. Input is assumed acyclic.
func FindProductNodes(node *Node) []*Node {
	var results []*Node
	collectTyped(node, "Product", &results)
	return results
}

func collectTyped(node *Node, typeName string, results *[]*Node) {
	if node == nil {
		return
	}

	switch node.Kind {
	case ListNode:
		for _, item := range node.List {
			collectTyped(item, typeName, results)
		}
	case MappingNode:
		if node.HasType(typeName) {
			*results = append(*results, node)
		}
		// product data can hide under any property, e.g. "@graph" or "mainEntity"
		for _, f := range node.Fields {
			collectTyped(f.Value, typeName, results)
		}
	}
}
