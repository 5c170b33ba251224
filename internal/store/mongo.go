package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/codementor-ai/codementor-backend/internal/config"
)

const (
	chatMessagesCollection  = "chatmessages"
	codeAnalysesCollection  = "codeanalyses"
	documentValidationError = 121
)

type chatMessageDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Message          string             `bson:"message"`
	Response         string             `bson:"response"`
	DetectedLanguage string             `bson:"detectedLanguage"`
	ConversationID   string             `bson:"conversationId"`
	UserID           *string            `bson:"userId,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

type errorItemDoc struct {
	Line        *int   `bson:"line"`
	Issue       string `bson:"issue"`
	Explanation string `bson:"explanation"`
	Severity    string `bson:"severity"`
}

type codeAnalysisDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Code      string             `bson:"code,omitempty"`
	Language  string             `bson:"language"`
	Summary   string             `bson:"summary"`
	Errors    []errorItemDoc     `bson:"errors"`
	FixedCode string             `bson:"fixed_code"`
	FileName  string             `bson:"fileName"`
	UserID    *string            `bson:"userId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// MongoStore keeps each entity in its own collection guarded by a $jsonSchema validator.
type MongoStore struct {
	client   *mongo.Client
	chats    *mongo.Collection
	analyses *mongo.Collection
}

// NewMongoStore connects to uri and prepares collections, validators and indexes.
// The database named in the URI wins over defaultDatabase.
func NewMongoStore(ctx context.Context, uri, defaultDatabase string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mongo uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:   client,
		chats:    db.Collection(chatMessagesCollection),
		analyses: db.Collection(codeAnalysesCollection),
	}
	if err := s.initSchema(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) initSchema(ctx context.Context, db *mongo.Database) error {
	if err := ensureCollection(ctx, db, chatMessagesCollection, chatMessageSchema()); err != nil {
		return err
	}
	if err := ensureCollection(ctx, db, codeAnalysesCollection, codeAnalysisSchema()); err != nil {
		return err
	}

	_, err := s.chats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversationId", Value: 1}}},
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create chat message indexes: %w", err)
	}
	_, err = s.analyses.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}})
	if err != nil {
		return fmt.Errorf("failed to create code analysis indexes: %w", err)
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	validator := bson.M{"$jsonSchema": schema}
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		if err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(validator)); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		return nil
	}
	cmd := bson.D{{Key: "collMod", Value: name}, {Key: "validator", Value: validator}}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to update validator for %s: %w", name, err)
	}
	return nil
}

func chatMessageSchema() bson.M {
	nonEmpty := bson.M{"bsonType": "string", "minLength": 1}
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"message", "response", "detectedLanguage", "conversationId", "createdAt"},
		"properties": bson.M{
			"message":          nonEmpty,
			"response":         nonEmpty,
			"detectedLanguage": bson.M{"bsonType": "string"},
			"conversationId":   nonEmpty,
			"createdAt":        bson.M{"bsonType": "date"},
			"updatedAt":        bson.M{"bsonType": "date"},
		},
	}
}

func codeAnalysisSchema() bson.M {
	languages := bson.A{}
	for _, l := range config.CanonicalLanguages {
		languages = append(languages, l)
	}
	severities := bson.A{}
	for _, s := range Severities {
		severities = append(severities, s)
	}

	return bson.M{
		"bsonType": "object",
		"required": bson.A{"code", "language", "errors", "createdAt"},
		"properties": bson.M{
			"code":       bson.M{"bsonType": "string", "minLength": 1},
			"language":   bson.M{"enum": languages},
			"summary":    bson.M{"bsonType": "string"},
			"fixed_code": bson.M{"bsonType": "string"},
			"fileName":   bson.M{"bsonType": "string"},
			"createdAt":  bson.M{"bsonType": "date"},
			"errors": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": bson.A{"issue", "explanation", "severity"},
					"properties": bson.M{
						"line":        bson.M{"bsonType": bson.A{"int", "long", "null"}, "minimum": 0},
						"issue":       bson.M{"bsonType": "string", "minLength": 1},
						"explanation": bson.M{"bsonType": "string", "minLength": 1},
						"severity":    bson.M{"enum": severities},
					},
				},
			},
		},
	}
}

// wrapWriteError maps server-side document validation failures onto ErrSchemaViolation.
func wrapWriteError(op string, err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == documentValidationError {
				return fmt.Errorf("%s: %w: %s", op, ErrSchemaViolation, e.Message)
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *MongoStore) CreateChatMessage(ctx context.Context, msg *ChatMessage) error {
	if err := prepareChatMessage(msg); err != nil {
		return err
	}
	ts := now()
	msg.CreatedAt, msg.UpdatedAt = ts, ts

	res, err := s.chats.InsertOne(ctx, chatMessageToDoc(msg))
	if err != nil {
		return wrapWriteError("failed to insert chat message", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return nil
}

func (s *MongoStore) ListChatMessages(ctx context.Context, q ChatHistoryQuery) ([]ChatMessage, error) {
	filter := bson.M{}
	if q.ConversationID != "" {
		filter["conversationId"] = q.ConversationID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(q.Limit))

	cur, err := s.chats.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	var docs []chatMessageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode chat messages: %w", err)
	}

	messages := make([]ChatMessage, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		messages = append(messages, chatMessageFromDoc(docs[i]))
	}
	return messages, nil
}

func (s *MongoStore) CreateCodeAnalysis(ctx context.Context, a *CodeAnalysis) error {
	if err := prepareCodeAnalysis(a); err != nil {
		return err
	}
	ts := now()
	a.CreatedAt, a.UpdatedAt = ts, ts

	res, err := s.analyses.InsertOne(ctx, codeAnalysisToDoc(a))
	if err != nil {
		return wrapWriteError("failed to insert code analysis", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

func (s *MongoStore) ListCodeAnalyses(ctx context.Context, limit int) ([]CodeAnalysisSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "code", Value: 0}, {Key: "fixed_code", Value: 0}})

	cur, err := s.analyses.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query code analyses: %w", err)
	}
	var docs []codeAnalysisDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode code analyses: %w", err)
	}

	summaries := make([]CodeAnalysisSummary, 0, len(docs))
	for _, d := range docs {
		a := codeAnalysisFromDoc(d)
		summaries = append(summaries, CodeAnalysisSummary{
			ID:        a.ID,
			Language:  a.Language,
			Summary:   a.Summary,
			Errors:    a.Errors,
			FileName:  a.FileName,
			UserID:    a.UserID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		})
	}
	return summaries, nil
}

// GetCodeAnalysis treats identifiers that are not ObjectIDs as unknown.
func (s *MongoStore) GetCodeAnalysis(ctx context.Context, id string) (*CodeAnalysis, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc codeAnalysisDoc
	if err := s.analyses.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get code analysis: %w", err)
	}
	a := codeAnalysisFromDoc(doc)
	return &a, nil
}

func chatMessageToDoc(msg *ChatMessage) chatMessageDoc {
	return chatMessageDoc{
		Message:          msg.Message,
		Response:         msg.Response,
		DetectedLanguage: msg.DetectedLanguage,
		ConversationID:   msg.ConversationID,
		UserID:           msg.UserID,
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        msg.UpdatedAt,
	}
}

func chatMessageFromDoc(d chatMessageDoc) ChatMessage {
	return ChatMessage{
		ID:               d.ID.Hex(),
		Message:          d.Message,
		Response:         d.Response,
		DetectedLanguage: d.DetectedLanguage,
		ConversationID:   d.ConversationID,
		UserID:           d.UserID,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

func codeAnalysisToDoc(a *CodeAnalysis) codeAnalysisDoc {
	items := make([]errorItemDoc, len(a.Errors))
	for i, e := range a.Errors {
		items[i] = errorItemDoc(e)
	}
	return codeAnalysisDoc{
		Code:      a.Code,
		Language:  a.Language,
		Summary:   a.Summary,
		Errors:    items,
		FixedCode: a.FixedCode,
		FileName:  a.FileName,
		UserID:    a.UserID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func codeAnalysisFromDoc(d codeAnalysisDoc) CodeAnalysis {
	items := make([]ErrorItem, len(d.Errors))
	for i, e := range d.Errors {
		items[i] = ErrorItem(e)
	}
	return CodeAnalysis{
		ID:        d.ID.Hex(),
		Code:      d.Code,
		Language:  d.Language,
		Summary:   d.Summary,
		Errors:    items,
		FixedCode: d.FixedCode,
		FileName:  d.FileName,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
