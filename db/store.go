// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Initial reference and motivation taken from
// https://gitlab.com/project-emco/core/emco-base/-/blob/main/src/orchestrator/pkg/infra/db

package db

import (
	"context"
)

// StoreCollection is a handle over a collection of documents keyed by
// their primary key. Every call accepts the context a session was bound
// to by StoreClient.WithSession, so that it runs inside that session.
type StoreCollection interface {
	// inserts one entry with given key and data to the collection
	InsertOne(ctx context.Context, key any, data any) error

	// updates one entry with given key, inserting it when upsert is set
	UpdateOne(ctx context.Context, key any, data any, upsert bool) error

	// sets the fields in set on the entry with given key, when no
	// entry exists one is created with both set and onInsert fields
	UpsertFields(ctx context.Context, key any, set any, onInsert any) error

	// find one entry for the given key
	FindOne(ctx context.Context, key any, data any) error

	// find multiple entries matching the filter
	FindMany(ctx context.Context, filter any, data any, opts ...any) error
}

type StoreClient interface {
	// Get collection inside the database with given name
	GetCollection(dbName, col string) StoreCollection

	// WithSession runs fn with a context bound to a fresh session,
	// within a transaction when txn is set. The session is released on
	// every path before returning.
	WithSession(ctx context.Context, txn bool, fn func(ctx context.Context) error) error

	// Health Check, if the Store is connectable and healthy
	// returns the status of health of the server by means of
	// error if error is nil the health of the DB store can be
	// considered healthy
	HealthCheck(ctx context.Context) error

	// Disconnect closes all connections of the client
	Disconnect(ctx context.Context) error
}
