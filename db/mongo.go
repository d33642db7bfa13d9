// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Initial reference and motivation taken from
// https://gitlab.com/project-emco/core/emco-base/-/blob/main/src/orchestrator/pkg/infra/db

package db

import (
	"context"
	"net"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/utils"
)

type mongoCollection struct {
	colName string // qualified as database.collection
	col     *mongo.Collection
}

// interprets mongo db error and returns library parsable error codes
func interpretMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(errors.AlreadyExists, err.Error())
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrap(errors.NotFound, err.Error())
	}
	return err
}

// converts data to a bson document for transacting with mongo db library
func toDocument(data any) (bson.D, error) {
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, err
	}
	doc := bson.D{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func byKey(key any) bson.M {
	return bson.M{"_id": key}
}

// nil filter matches every document
func orMatchAll(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}

func (c *mongoCollection) checkArgs(op string, key, data any) error {
	if key == nil {
		return errors.Wrapf(errors.InvalidArgument, "%s on %s: key is required", op, c.colName)
	}
	if data == nil {
		return errors.Wrapf(errors.InvalidArgument, "%s on %s: data is required", op, c.colName)
	}
	return nil
}

func (c *mongoCollection) notFound(key any) error {
	return errors.Wrapf(errors.NotFound, "no document %v in %s", key, c.colName)
}

// InsertOne stores data under key, errors.AlreadyExists if the key is
// taken
func (c *mongoCollection) InsertOne(ctx context.Context, key any, data any) error {
	if err := c.checkArgs("insert", key, data); err != nil {
		return err
	}
	doc, err := toDocument(data)
	if err != nil {
		return err
	}
	doc = append(doc, bson.E{Key: "_id", Value: key})

	if _, err := c.col.InsertOne(ctx, doc); err != nil {
		return interpretMongoError(err)
	}
	return nil
}

// UpdateOne sets the fields of data on the document with key. Without
// upsert a missing document is errors.NotFound.
func (c *mongoCollection) UpdateOne(ctx context.Context, key any, data any, upsert bool) error {
	if err := c.checkArgs("update", key, data); err != nil {
		return err
	}
	resp, err := c.col.UpdateOne(ctx, byKey(key),
		bson.D{{Key: "$set", Value: data}},
		options.UpdateOne().SetUpsert(upsert))
	if err != nil {
		return interpretMongoError(err)
	}
	if resp.MatchedCount == 0 && resp.UpsertedCount == 0 {
		return c.notFound(key)
	}
	return nil
}

// UpsertFields sets the given fields on one entry, creating the entry
// with the fields of onInsert added when it does not exist
func (c *mongoCollection) UpsertFields(ctx context.Context, key any, set any, onInsert any) error {
	if err := c.checkArgs("upsert", key, set); err != nil {
		return err
	}
	update := bson.D{{Key: "$set", Value: set}}
	if onInsert != nil {
		update = append(update, bson.E{Key: "$setOnInsert", Value: onInsert})
	}
	if _, err := c.col.UpdateOne(ctx, byKey(key), update, options.UpdateOne().SetUpsert(true)); err != nil {
		return interpretMongoError(err)
	}
	return nil
}

// FindOne decodes the document with key into data
func (c *mongoCollection) FindOne(ctx context.Context, key any, data any) error {
	if err := c.col.FindOne(ctx, byKey(key)).Decode(data); err != nil {
		return interpretMongoError(err)
	}
	return nil
}

// FindMany decodes every document matching filter into data, which must
// be a pointer to a slice. opts must be FindOptions listers.
func (c *mongoCollection) FindMany(ctx context.Context, filter any, data any, opts ...any) error {
	findOpts := make([]options.Lister[options.FindOptions], 0, len(opts))
	for _, opt := range opts {
		lister, ok := opt.(options.Lister[options.FindOptions])
		if !ok {
			return errors.Wrapf(errors.InvalidArgument, "find on %s: unsupported option %T", c.colName, opt)
		}
		findOpts = append(findOpts, lister)
	}
	cursor, err := c.col.Find(ctx, orMatchAll(filter), findOpts...)
	if err != nil {
		return interpretMongoError(err)
	}
	return cursor.All(ctx, data)
}

type mongoClient struct {
	client *mongo.Client
}

// MongoConfig locates and authenticates the mongo server, either Uri
// or Host and Port
type MongoConfig struct {
	Host     string
	Port     string
	Uri      string
	Username string
	Password string

	// Tracing attaches an OpenTelemetry command monitor to the client
	Tracing bool
}

func (c *MongoConfig) validate() error {
	if c.Uri != "" {
		if c.Host != "" || c.Port != "" {
			return errors.Wrap(errors.InvalidArgument, "cannot provide host and port if uri is configured")
		}
	} else {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == "" || c.Port == "0" {
			c.Port = "27017"
		} else {
			if _, err := strconv.Atoi(c.Port); err != nil {
				return errors.Wrap(errors.InvalidArgument, "invalid database port")
			}
		}
	}
	return nil
}

func (c *MongoConfig) uri() string {
	if c.Uri != "" {
		return c.Uri
	}
	return "mongodb://" + net.JoinHostPort(c.Host, c.Port)
}

// NewMongoClient creates a client for the configured server. The
// connection is established lazily, use HealthCheck to verify it.
func NewMongoClient(conf *MongoConfig) (StoreClient, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	// majority write concern with journaling, configuration changes
	// must survive a primary failover
	wc := writeconcern.Majority()
	wc.Journal = utils.BoolP(true)

	opts := options.Client().
		ApplyURI(conf.uri()).
		SetAppName(getSourceIdentifier()).
		SetAuth(options.Credential{
			AuthMechanism: "SCRAM-SHA-256",
			AuthSource:    "admin",
			Username:      conf.Username,
			Password:      conf.Password,
		}).
		SetWriteConcern(wc)
	if conf.Tracing {
		opts.SetMonitor(otelmongo.NewMonitor())
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	return &mongoClient{client: client}, nil
}

// GetCollection returns collection col of database dbName
func (c *mongoClient) GetCollection(dbName, col string) StoreCollection {
	return &mongoCollection{
		colName: dbName + "." + col,
		col:     c.client.Database(dbName).Collection(col),
	}
}

// runs fn under a new session, transactions need the server to be
// part of a replica set
func (c *mongoClient) WithSession(ctx context.Context, txn bool, fn func(ctx context.Context) error) error {
	sess, err := c.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	if txn {
		_, err = sess.WithTransaction(ctx, func(sc context.Context) (any, error) {
			return nil, fn(sc)
		})
		return err
	}
	return fn(mongo.NewSessionContext(ctx, sess))
}

// HealthCheck pings the primary
func (c *mongoClient) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *mongoClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
