// Package storage provides interfaces for durable client-side storage to be in compliance with.
package storage

import "context"

// Getter defines a set of methods for types implementing Getter.
type Getter interface {
	Get(ctx context.Context, key string) (value string, err error)
}

// Setter defines a set of methods for types implementing Setter.
type Setter interface {
	Set(ctx context.Context, key string, value string) error
}

// Remover defines a set of methods for types implementing Remover.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Closer defines a set of methods for types implementing Closer.
type Closer interface {
	Close() error
}

// KeyValue defines a set of embedded interfaces for types implementing KeyValue.
type KeyValue interface {
	Getter
	Setter
	Remover
	Closer
}
