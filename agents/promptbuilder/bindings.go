/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import "fmt"

type binding interface {
	value() (string, error)
}

type unbound string

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", string(u))
}

type text string

func (t text) value() (string, error) {
	return string(t), nil
}

// existsAndUnbound returns an error if name is not a placeholder of the
// template or has already been bound.
func existsAndUnbound(bindings map[string]binding, name string) error {
	b, ok := bindings[name]
	if !ok {
		return fmt.Errorf("binding %q not found in template", name)
	}
	if _, ok := b.(unbound); !ok {
		return fmt.Errorf("binding %q already bound", name)
	}
	return nil
}
