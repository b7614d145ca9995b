package datasource

import (
	"context"
	"time"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// documentRecord is the BSON shape of one artifact document. The four
// canonical fields carry a unique compound index, matching the
// original implementation's collection layout. Data is stored as an
// opaque CBOR-encoded blob (so a TimeSeries round-trips exactly) while
// filetype/description/metadata are kept as separate top-level fields,
// matching the document backend's external field layout.
type documentRecord struct {
	Origin      string         `bson:"origin"`
	Event       string         `bson:"event"`
	Source      string         `bson:"source"`
	Name        string         `bson:"name"`
	Data        []byte         `bson:"data"`
	FileType    string         `bson:"filetype"`
	Description string         `bson:"description"`
	Metadata    map[string]any `bson:"metadata"`
}

type metadataRecord struct {
	Key          string    `bson:"_id"`
	Commissioned bool      `bson:"commissioned"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// DocumentStore persists artifacts as CBOR blobs in a MongoDB
// collection keyed by the canonical four-tuple, with upsert-replace
// semantics on collision. A sibling metadata collection records that
// the store has been commissioned, mirroring the original
// implementation's bootstrap document.
type DocumentStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	metadata   *mongo.Collection
}

// NewDocumentStore connects to uri and commissions database/collection
// if this is the first connection, creating the compound unique index
// over (origin, event, source, name).
func NewDocumentStore(ctx context.Context, uri, database, collection string) (*DocumentStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, core.NewIOError("document_store_connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, core.NewIOError("document_store_ping", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)
	meta := db.Collection(collection + "_metadata")

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "origin", Value: 1},
			{Key: "event", Value: 1},
			{Key: "source", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, core.NewIOError("document_store_index", err)
	}

	if _, err := meta.UpdateByID(ctx, "status",
		bson.M{"$set": metadataRecord{Key: "status", Commissioned: true, UpdatedAt: time.Now()}},
		options.Update().SetUpsert(true)); err != nil {
		return nil, core.NewIOError("document_store_commission", err)
	}

	return &DocumentStore{client: client, collection: coll, metadata: meta}, nil
}

func documentFilter(path core.CanonicalPath) bson.M {
	return bson.M{
		"origin": path.Origin,
		"event":  path.Event,
		"source": path.Source,
		"name":   path.Name,
	}
}

// Store upserts the artifact, replacing any prior document at the same
// canonical path. file_type, description, and metadata are kept as
// separate top-level fields; data is CBOR-encoded into an opaque blob.
func (s *DocumentStore) Store(ctx context.Context, artifact core.Artifact) (core.ArtifactLoader, error) {
	raw, err := encodeArtifactData(artifact.Data)
	if err != nil {
		return core.ArtifactLoader{}, err
	}

	record := documentRecord{
		Origin:      artifact.CanonicalPath.Origin,
		Event:       artifact.CanonicalPath.Event,
		Source:      artifact.CanonicalPath.Source,
		Name:        artifact.CanonicalPath.Name,
		Data:        raw,
		FileType:    string(artifact.FileType),
		Description: artifact.Description,
		Metadata:    artifact.Metadata,
	}

	_, err = s.collection.ReplaceOne(ctx, documentFilter(artifact.CanonicalPath), record, options.Replace().SetUpsert(true))
	if err != nil {
		return core.ArtifactLoader{}, core.NewIOError("document_store_replace", err)
	}

	path := artifact.CanonicalPath
	return core.NewArtifactLoader(path, func(ctx context.Context) (core.Result[core.Artifact], error) {
		return s.Get(ctx, path, nil)
	}), nil
}

// Get retrieves the document at path, reassembling the Artifact from
// its top-level fields and decoded data payload.
func (s *DocumentStore) Get(ctx context.Context, path core.CanonicalPath, hints map[string]any) (core.Result[core.Artifact], error) {
	var record documentRecord
	err := s.collection.FindOne(ctx, documentFilter(path)).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return core.Err[core.Artifact](core.ErrNotFound), nil
	}
	if err != nil {
		return core.Result[core.Artifact]{}, core.NewIOError("document_store_find", err)
	}

	data, err := decodeArtifactData(record.Data)
	if err != nil {
		return core.Err[core.Artifact](err), nil
	}

	artifact := core.NewArtifact(path, core.ArtifactType(record.FileType), data).
		WithDescription(record.Description)
	for k, v := range record.Metadata {
		artifact = artifact.WithMetadata(k, v)
	}
	return core.Ok(artifact), nil
}

// Close disconnects the underlying MongoDB client.
func (s *DocumentStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return core.NewIOError("document_store_close", err)
	}
	return nil
}
