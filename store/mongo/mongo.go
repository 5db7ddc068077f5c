// Package mongo implements comment.Store on MongoDB.
//
// Comments live in one collection. Each document uses the comment id as its
// _id; root comments carry an empty or missing parent_id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/threadkit/threadcache/comment"
)

const (
	defaultDBName     = "threadcache"
	defaultCollection = "comments"
)

// ErrEmptyURL is returned by New without a connection URL.
var ErrEmptyURL = errors.New("store: empty database url")

// Config selects the MongoDB deployment.
type Config struct {
	// URL is a mongodb:// connection string. Its path names the database.
	URL string

	// Database overrides the database named in URL.
	// Default: the URL path, or "threadcache"
	Database string

	// Collection holds the comments.
	// Default: "comments"
	Collection string
}

// Store reads comments from MongoDB.
type Store struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	comments *mongodriver.Collection
}

// New connects, pings the primary and ensures the read indexes exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrEmptyURL
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = databaseFromURI(cfg.URL)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	db := cli.Database(dbName)
	s := &Store{
		client:   cli,
		db:       db,
		comments: db.Collection(collection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping implements comment.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return classify(fmt.Errorf("mongo ping: %w", err))
	}
	return nil
}

// ensureIndexes creates the indexes the read paths rely on:
//   - thread pages: entity_id + parent_id + created_at
//   - pages sorted by edit time: entity_id + updated_at
//   - author filters: author_id + created_at
func (s *Store) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "entity_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("entity_parent_created"),
		},
		{
			Keys:    bson.D{{Key: "entity_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("entity_updated"),
		},
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("author_created"),
		},
	}

	if _, err := s.comments.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// classify marks connectivity failures as comment.ErrStoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mongodriver.IsNetworkError(err) || mongodriver.IsTimeout(err) || errors.Is(err, mongodriver.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", comment.ErrStoreUnavailable, err)
	}
	return err
}

// databaseFromURI returns the database named in a mongodb URI path, or the
// default when there is none.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
