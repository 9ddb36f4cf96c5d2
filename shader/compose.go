// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
	"strings"
)

// Composition errors.
var (
	// ErrNilShader is returned for a nil shader or dependency.
	ErrNilShader = errors.New("shader: nil shader")

	// ErrImportCycle is returned when a shader depends on itself.
	ErrImportCycle = errors.New("shader: import cycle")

	// ErrDuplicateName is returned when two distinct shaders in one
	// composition share a name.
	ErrDuplicateName = errors.New("shader: duplicate shader name")
)

// Shader is a WGSL module and the modules it depends on.
type Shader struct {
	Name   string
	Source string
	Deps   []*Shader
}

// Compose returns the source of s preceded by the sources of its
// dependencies in depth-first order. A module reachable through several
// paths is emitted once.
func Compose(s *Shader) (string, error) {
	c := composer{state: make(map[*Shader]visit), names: make(map[string]*Shader)}
	if err := c.visit(s, nil); err != nil {
		return "", err
	}
	return strings.Join(c.out, "\n"), nil
}

type visit int

const (
	unvisited visit = iota
	visiting
	done
)

type composer struct {
	state map[*Shader]visit
	names map[string]*Shader
	out   []string
}

func (c *composer) visit(s *Shader, path []string) error {
	if s == nil {
		if len(path) == 0 {
			return ErrNilShader
		}
		return fmt.Errorf("%w: dependency of %s", ErrNilShader, path[len(path)-1])
	}
	path = append(path, s.Name)
	switch c.state[s] {
	case done:
		return nil
	case visiting:
		return fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(path, " -> "))
	}
	if other, ok := c.names[s.Name]; ok && other != s {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	c.names[s.Name] = s

	c.state[s] = visiting
	for _, d := range s.Deps {
		if err := c.visit(d, path); err != nil {
			return err
		}
	}
	c.state[s] = done
	c.out = append(c.out, s.Source)
	return nil
}
