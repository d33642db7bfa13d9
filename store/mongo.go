// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/db"
	"github.com/go-core-stack/slowmode/monitor"
	"github.com/go-core-stack/slowmode/table"
)

const (
	// default database holding the channel configurations
	DefaultMongoDatabase = "slowmode"

	// collection holding one document per channel, keyed by channel id
	channelCollection = "channels"
)

// channelEntry is the document stored per channel, the channel id is
// the primary key and is only populated on reads
type channelEntry struct {
	EntityID       string  `bson:"_id,omitempty"`
	GroupID        string  `bson:"group"`
	PaceMin        int     `bson:"paceMin"`
	PaceMax        int     `bson:"paceMax"`
	WindowCapacity int     `bson:"windowCapacity"`
	Sensitivity    float64 `bson:"sensitivity"`
	Monitoring     bool    `bson:"monitoring"`
}

func newChannelEntry(cfg *monitor.EntityConfig) *channelEntry {
	return &channelEntry{
		GroupID:        cfg.GroupID,
		PaceMin:        cfg.PaceMin,
		PaceMax:        cfg.PaceMax,
		WindowCapacity: cfg.WindowCapacity,
		Sensitivity:    cfg.Sensitivity,
		Monitoring:     cfg.Monitoring,
	}
}

func (e *channelEntry) config(id string) *monitor.EntityConfig {
	return &monitor.EntityConfig{
		EntityID:       id,
		GroupID:        e.GroupID,
		PaceMin:        e.PaceMin,
		PaceMax:        e.PaceMax,
		WindowCapacity: e.WindowCapacity,
		Sensitivity:    e.Sensitivity,
		Monitoring:     e.Monitoring,
	}
}

type channelTable struct {
	table.Table[string, channelEntry]
}

// Mongo stores channel configurations in a mongo collection. Every
// operation runs in its own session, optionally inside a transaction.
type Mongo struct {
	client   db.StoreClient
	channels *channelTable
	txn      bool
	logger   *zap.Logger
}

// MongoOption configures a Mongo store
type MongoOption func(*Mongo)

// WithTransactions runs every operation inside a transaction, needs the
// server to be part of a replica set
func WithTransactions(enable bool) MongoOption {
	return func(m *Mongo) { m.txn = enable }
}

// WithMongoLogger sets the logger, defaults to a no-op logger
func WithMongoLogger(logger *zap.Logger) MongoOption {
	return func(m *Mongo) { m.logger = logger }
}

// NewMongo creates a store over the channels collection of database
// dbName
func NewMongo(client db.StoreClient, dbName string, opts ...MongoOption) (*Mongo, error) {
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}
	m := &Mongo{
		client:   client,
		channels: &channelTable{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.channels.Initialize(client.GetCollection(dbName, channelCollection)); err != nil {
		return nil, err
	}
	m.logger.Debug("mongo store ready",
		zap.String("database", dbName),
		zap.String("collection", channelCollection),
		zap.Bool("transactions", m.txn))
	return m, nil
}

func (m *Mongo) session(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.client.WithSession(ctx, m.txn, fn)
}

func (m *Mongo) list(ctx context.Context, filter bson.M) ([]*channelEntry, error) {
	var entries []*channelEntry
	err := m.session(ctx, func(sc context.Context) error {
		var err error
		entries, err = m.channels.FindManyWithOpts(sc, filter,
			table.WithSort(table.SortOption{Field: "_id", Direction: table.SortAscending}))
		return err
	})
	return entries, err
}

func (m *Mongo) ListMonitoring(ctx context.Context) ([]*monitor.EntityConfig, error) {
	entries, err := m.list(ctx, bson.M{"monitoring": true})
	if err != nil {
		return nil, err
	}
	list := make([]*monitor.EntityConfig, 0, len(entries))
	for _, e := range entries {
		list = append(list, e.config(e.EntityID))
	}
	return list, nil
}

func (m *Mongo) ListGroupMonitoring(ctx context.Context, groupID string) ([]string, error) {
	entries, err := m.list(ctx, bson.M{"monitoring": true, "group": groupID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.EntityID)
	}
	return ids, nil
}

func (m *Mongo) Get(ctx context.Context, entityID string) (*monitor.EntityConfig, error) {
	var cfg *monitor.EntityConfig
	err := m.session(ctx, func(sc context.Context) error {
		entry, err := m.channels.Find(sc, &entityID)
		if err != nil {
			return err
		}
		cfg = entry.config(entityID)
		return nil
	})
	return cfg, err
}

func (m *Mongo) Insert(ctx context.Context, cfg *monitor.EntityConfig) error {
	return m.session(ctx, func(sc context.Context) error {
		return m.channels.Insert(sc, &cfg.EntityID, newChannelEntry(cfg))
	})
}

func (m *Mongo) SetMonitoring(ctx context.Context, entityID string, monitoring bool) error {
	return m.session(ctx, func(sc context.Context) error {
		return m.channels.UpdateFields(sc, &entityID, bson.M{"monitoring": monitoring})
	})
}

func (m *Mongo) UpdateFields(ctx context.Context, cfg *monitor.EntityConfig) error {
	set := bson.M{
		"paceMin":        cfg.PaceMin,
		"paceMax":        cfg.PaceMax,
		"windowCapacity": cfg.WindowCapacity,
		"sensitivity":    cfg.Sensitivity,
	}
	onInsert := bson.M{
		"group":      cfg.GroupID,
		"monitoring": cfg.Monitoring,
	}
	return m.session(ctx, func(sc context.Context) error {
		return m.channels.Patch(sc, &cfg.EntityID, set, onInsert)
	})
}
