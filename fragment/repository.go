// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragment

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// NotFoundError reports a fragment or declaration name that is absent
// from the repository.
type NotFoundError struct {
	// What is "fragment" or "declaration".
	What string
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.What, e.Name)
}

// Contents is the mutable form of a repository, used to build or update one.
type Contents struct {
	Fragments    map[string]*Fragment
	Declarations map[string]*Declaration
}

// Repository is an immutable table of fragments and declarations.
// It is safe for concurrent use.
type Repository struct {
	fragments    map[string]*Fragment
	declarations map[string]*Declaration
}

// NewRepository builds a repository from fragment and declaration lists.
// Duplicate or empty names are reported together.
func NewRepository(fragments []*Fragment, declarations []*Declaration) (*Repository, error) {
	c := Contents{
		Fragments:    make(map[string]*Fragment, len(fragments)),
		Declarations: make(map[string]*Declaration, len(declarations)),
	}

	var errs *multierror.Error
	for _, f := range fragments {
		if f == nil || f.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("fragment with empty name"))
			continue
		}
		if _, dup := c.Fragments[f.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("duplicate fragment %q", f.Name))
			continue
		}
		c.Fragments[f.Name] = f
	}
	for _, d := range declarations {
		if d == nil || d.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("declaration with empty name"))
			continue
		}
		if _, dup := c.Declarations[d.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("duplicate declaration %q", d.Name))
			continue
		}
		c.Declarations[d.Name] = d
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return FromContents(c), nil
}

// FromContents freezes c into a repository. The maps are copied; the
// records themselves are shared and must not be modified afterwards.
func FromContents(c Contents) *Repository {
	r := &Repository{
		fragments:    make(map[string]*Fragment, len(c.Fragments)),
		declarations: make(map[string]*Declaration, len(c.Declarations)),
	}
	for name, f := range c.Fragments {
		r.fragments[name] = f
	}
	for name, d := range c.Declarations {
		r.declarations[name] = d
	}
	return r
}

// Fragment looks up a fragment by name.
func (r *Repository) Fragment(name string) (*Fragment, error) {
	if f, ok := r.fragments[name]; ok {
		return f, nil
	}
	return nil, &NotFoundError{What: "fragment", Name: name}
}

// Declaration looks up a declaration by name.
func (r *Repository) Declaration(name string) (*Declaration, error) {
	if d, ok := r.declarations[name]; ok {
		return d, nil
	}
	return nil, &NotFoundError{What: "declaration", Name: name}
}

// HasDeclaration reports whether a declaration exists.
func (r *Repository) HasDeclaration(name string) bool {
	_, ok := r.declarations[name]
	return ok
}

// FragmentNames returns all fragment names in sorted order.
func (r *Repository) FragmentNames() []string {
	names := make([]string, 0, len(r.fragments))
	for name := range r.fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contents returns the repository's tables as a fresh Contents value.
// The maps are new; the records are shared.
func (r *Repository) Contents() Contents {
	c := Contents{
		Fragments:    make(map[string]*Fragment, len(r.fragments)),
		Declarations: make(map[string]*Declaration, len(r.declarations)),
	}
	for name, f := range r.fragments {
		c.Fragments[name] = f
	}
	for name, d := range r.declarations {
		c.Declarations[name] = d
	}
	return c
}

// CheckIncludes verifies that every include named by a fragment or
// declaration resolves. All missing names are reported.
func (r *Repository) CheckIncludes() error {
	var errs *multierror.Error
	check := func(owner string, includes []string) {
		for _, inc := range includes {
			if _, ok := r.declarations[inc]; !ok {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", owner, &NotFoundError{What: "declaration", Name: inc}))
			}
		}
	}
	for _, name := range r.FragmentNames() {
		check("fragment "+name, r.fragments[name].Includes)
	}
	declNames := make([]string, 0, len(r.declarations))
	for name := range r.declarations {
		declNames = append(declNames, name)
	}
	sort.Strings(declNames)
	for _, name := range declNames {
		check("declaration "+name, r.declarations[name].Includes)
	}
	return errs.ErrorOrNil()
}
