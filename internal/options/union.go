package options

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// BoolOr holds either a plain boolean switch or a detailed setting
type BoolOr[T any] struct {
	Bool   bool
	Detail *T
}

// On builds the plain boolean form
func On[T any](value bool) *BoolOr[T] {
	return &BoolOr[T]{Bool: value}
}

// With builds the detailed form
func With[T any](detail T) *BoolOr[T] {
	return &BoolOr[T]{Detail: &detail}
}

func (b *BoolOr[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.ShortTag() != "!!bool" {
			return fmt.Errorf("line %d: expected a boolean or a mapping, got %q", node.Line, node.Value)
		}
		return node.Decode(&b.Bool)
	}
	var detail T
	if err := node.Decode(&detail); err != nil {
		return err
	}
	b.Detail = &detail
	return nil
}

func (b BoolOr[T]) MarshalYAML() (any, error) {
	if b.Detail != nil {
		return b.Detail, nil
	}
	return b.Bool, nil
}

// StringOr holds either a short string form or a detailed setting
type StringOr[T any] struct {
	String string
	Detail *T
}

// Short builds the string form
func Short[T any](value string) StringOr[T] {
	return StringOr[T]{String: value}
}

// Long builds the detailed form
func Long[T any](detail T) StringOr[T] {
	return StringOr[T]{Detail: &detail}
}

func (s *StringOr[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&s.String)
	}
	var detail T
	if err := node.Decode(&detail); err != nil {
		return err
	}
	s.Detail = &detail
	return nil
}

func (s StringOr[T]) MarshalYAML() (any, error) {
	if s.Detail != nil {
		return s.Detail, nil
	}
	return s.String, nil
}

// StringList accepts a single string wherever a list is expected
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}
