package sink

import (
	"context"
	"fmt"
	"net/url"

	"csv-import/internal/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDialer connects one client per Dial.
type MongoDialer struct {
	// AppName is reported to the server in the handshake.
	AppName string
}

// URI builds the connection string for cfg. Credentials are omitted when no
// username is configured.
func URI(cfg *model.Config) string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", cfg.MongoHost, cfg.MongoPort),
	}
	if cfg.MongoUsername != "" {
		u.User = url.UserPassword(cfg.MongoUsername, cfg.MongoPassword)
	}
	return u.String()
}

// Dial connects, verifies the server is reachable and returns a sink bound to
// the configured collection.
func (d MongoDialer) Dial(ctx context.Context, cfg *model.Config) (Sink, error) {
	opts := options.Client().ApplyURI(URI(cfg))
	if d.AppName != "" {
		opts.SetAppName(d.AppName)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s:%d", cfg.MongoHost, cfg.MongoPort)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrapf(err, "pinging %s:%d", cfg.MongoHost, cfg.MongoPort)
	}
	return &mongoSink{
		client: client,
		coll:   client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
	}, nil
}

type mongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (s *mongoSink) InsertOne(ctx context.Context, doc model.Document) error {
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "inserting into %s", s.coll.Name())
	}
	return nil
}

func (s *mongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
