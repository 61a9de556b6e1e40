/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mutation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Handler applies the effect of a mutator within the transaction T.
type Handler[T any] func(ctx context.Context, tx T, args Args) error

// Registry is a table of handlers by name. The client and the server each
// build their own registry over their own transaction type.
type Registry[T any] struct {
	handlers map[Name]Handler[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{handlers: make(map[Name]Handler[T])}
}

// Register registers the handler of the given name. It panics if the name is
// unknown or already registered.
func (r *Registry[T]) Register(name Name, handler Handler[T]) {
	if !IsKnown(name) {
		panic(fmt.Sprintf("register %s: %s", name, ErrUnknownMutator))
	}
	if _, ok := r.handlers[name]; ok {
		panic(fmt.Sprintf("register %s: already registered", name))
	}
	r.handlers[name] = handler
}

// Lookup returns the handler of the given name.
func (r *Registry[T]) Lookup(name Name) (Handler[T], bool) {
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns the registered names in alphabetical order.
func (r *Registry[T]) Names() []Name {
	names := make([]Name, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Apply runs the handler of already decoded args.
func (r *Registry[T]) Apply(ctx context.Context, tx T, args Args) error {
	handler, ok := r.handlers[args.MutationName()]
	if !ok {
		return fmt.Errorf("%s: %w", args.MutationName(), ErrUnknownMutator)
	}
	return handler(ctx, tx, args)
}

// Run decodes the raw arguments of the named mutator and runs its handler.
func (r *Registry[T]) Run(ctx context.Context, tx T, name Name, raw json.RawMessage) error {
	if _, ok := r.handlers[name]; !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownMutator)
	}

	args, err := DecodeArgs(name, raw)
	if err != nil {
		return err
	}
	return r.Apply(ctx, tx, args)
}

// On registers a handler taking the concrete argument type of the mutator.
func On[A Args, T any](r *Registry[T], fn func(ctx context.Context, tx T, args A) error) {
	var zero A
	name := zero.MutationName()
	r.Register(name, func(ctx context.Context, tx T, args Args) error {
		typed, ok := args.(A)
		if !ok {
			return fmt.Errorf("%s: unexpected %T: %w", name, args, ErrInvalidArgs)
		}
		return fn(ctx, tx, typed)
	})
}
