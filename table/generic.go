// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

/*
Package table provides a generic Table abstraction for managing collections of entries
in a database, with key management and CRUD operations.

# Usage

Define the key and entry types, then create a Table instance:

	type ChannelEntry struct {
		Group string `bson:"group"`
		Min   int    `bson:"min"`
	}

	var channels table.Table[string, ChannelEntry]

	err := channels.Initialize(col)

	// Insert an entry
	key := "1234"
	err = channels.Insert(ctx, &key, &ChannelEntry{Group: "g", Min: 2})

	// Set a subset of fields, creating the entry when absent
	err = channels.Patch(ctx, &key, bson.M{"min": 5}, bson.M{"group": "g"})

	// Find an entry
	found, err := channels.Find(ctx, &key)

# Notes

- The entry type E must NOT be a pointer type.
- The key type K must NOT be a pointer type.
- The Table must be initialized before use.
- All operations are context-aware, pass a session bound context from
  db.StoreClient.WithSession to run them inside a session.
*/
package table

import (
	"context"
	"reflect"

	"github.com/go-core-stack/slowmode/db"
	"github.com/go-core-stack/slowmode/errors"
)

// Table is a generic table type providing common functions and types to specific
// structures each table is built using. It ensures sanity checks and provides
// common functionality for database-backed tables.
//
// K: Key type (must NOT be a pointer type, typically a struct or primitive)
// E: Entry type (must NOT be a pointer type)
type Table[K any, E any] struct {
	col db.StoreCollection
}

// Initialize sets up the Table with the provided db.StoreCollection.
// It performs sanity checks on the entry and key types. Must be called
// before any other operation.
func (t *Table[K, E]) Initialize(col db.StoreCollection) error {
	if t.col != nil {
		return errors.Wrapf(errors.AlreadyExists, "Table is already initialized")
	}

	var e E
	if reflect.TypeOf(e).Kind() == reflect.Pointer {
		return errors.Wrapf(errors.InvalidArgument, "Table entry type must not be a pointer")
	}

	var k K
	if reflect.TypeOf(k).Kind() == reflect.Pointer {
		return errors.Wrapf(errors.InvalidArgument, "Table key type must not be a pointer")
	}

	t.col = col
	return nil
}

// Insert adds a new entry to the table with the given key.
// Returns errors.AlreadyExists if an entry with the key exists.
func (t *Table[K, E]) Insert(ctx context.Context, key *K, entry *E) error {
	if t.col == nil {
		return errors.Wrapf(errors.InvalidArgument, "Table not initialized")
	}
	return t.col.InsertOne(ctx, key, entry)
}

// UpdateFields sets a subset of fields of an existing entry.
// Returns errors.NotFound if no entry exists.
func (t *Table[K, E]) UpdateFields(ctx context.Context, key *K, fields any) error {
	if t.col == nil {
		return errors.Wrapf(errors.InvalidArgument, "Table not initialized")
	}
	return t.col.UpdateOne(ctx, key, fields, false)
}

// Patch sets the fields in set on the entry, creating the entry with the
// fields of onInsert added when none exists.
func (t *Table[K, E]) Patch(ctx context.Context, key *K, set any, onInsert any) error {
	if t.col == nil {
		return errors.Wrapf(errors.InvalidArgument, "Table not initialized")
	}
	return t.col.UpsertFields(ctx, key, set, onInsert)
}

// Find retrieves an entry by key.
// Returns errors.NotFound if no entry exists.
func (t *Table[K, E]) Find(ctx context.Context, key *K) (*E, error) {
	if t.col == nil {
		return nil, errors.Wrapf(errors.InvalidArgument, "Table not initialized")
	}
	var data E
	err := t.col.FindOne(ctx, key, &data)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrapf(errors.NotFound, "failed to find entry with key %v: %s", *key, err)
		}
		return nil, err
	}
	return &data, nil
}

// FindManyWithOpts retrieves entries matching the provided filter,
// ordered as requested.
func (t *Table[K, E]) FindManyWithOpts(ctx context.Context, filter any, opts ...FindOption) ([]*E, error) {
	if t.col == nil {
		return nil, errors.Wrapf(errors.InvalidArgument, "Table not initialized")
	}
	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}
	var data []*E
	if err := t.col.FindMany(ctx, filter, &data, o.lister()); err != nil {
		return nil, err
	}
	return data, nil
}
