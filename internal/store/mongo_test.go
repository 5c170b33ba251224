package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestCodeAnalysisDocConversion(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &CodeAnalysis{
		Code:      "int main() {}",
		Language:  "c",
		Summary:   "ok",
		Errors:    []ErrorItem{{Line: intPtr(1), Issue: "i", Explanation: "e", Severity: SeverityInfo}},
		FixedCode: "int main(void) {}",
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	doc := codeAnalysisToDoc(a)
	doc.ID = primitive.NewObjectID()
	back := codeAnalysisFromDoc(doc)

	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, a.Code, back.Code)
	assert.Equal(t, a.Errors, back.Errors)
	assert.Equal(t, a.FixedCode, back.FixedCode)
	assert.True(t, ts.Equal(back.CreatedAt))
}

func TestCodeAnalysisSchemaEnumerations(t *testing.T) {
	schema := codeAnalysisSchema()
	props := schema["properties"].(bson.M)
	lang := props["language"].(bson.M)
	assert.Len(t, lang["enum"], 6)
}

func TestWrapWriteError(t *testing.T) {
	validation := mongo.WriteException{WriteErrors: mongo.WriteErrors{
		{Index: 0, Code: documentValidationError, Message: "Document failed validation"},
	}}
	err := wrapWriteError("failed to insert code analysis", validation)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.Contains(t, err.Error(), "Document failed validation")

	duplicate := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Index: 0, Code: 11000, Message: "duplicate key"}}}
	err = wrapWriteError("failed to insert chat message", duplicate)
	assert.NotErrorIs(t, err, ErrSchemaViolation)
	assert.ErrorAs(t, err, &mongo.WriteException{})

	err = wrapWriteError("failed to insert chat message", errors.New("connection reset"))
	assert.NotErrorIs(t, err, ErrSchemaViolation)
	assert.Contains(t, err.Error(), "connection reset")
}

func newMockedStore(mt *mtest.T) *MongoStore {
	return &MongoStore{client: mt.Client, chats: mt.Coll, analyses: mt.Coll}
}

func TestMongoStoreMocked(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "codementor.chatmessages"

	mt.Run("validation rejection maps to schema violation", func(mt *mtest.T) {
		s := newMockedStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    documentValidationError,
			Message: "Document failed validation",
		}))

		msg := &ChatMessage{Message: "hi", Response: "hello", DetectedLanguage: "en", ConversationID: "c1"}
		err := s.CreateChatMessage(ctx, msg)
		assert.ErrorIs(mt, err, ErrSchemaViolation)
		assert.Empty(mt, msg.ID)
	})

	mt.Run("chat history is returned oldest first", func(mt *mtest.T) {
		s := newMockedStore(mt)
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		newest := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "message", Value: "m3"},
			{Key: "response", Value: "r3"},
			{Key: "detectedLanguage", Value: "en"},
			{Key: "conversationId", Value: "c1"},
			{Key: "createdAt", Value: base.Add(2 * time.Minute)},
		}
		older := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "message", Value: "m2"},
			{Key: "response", Value: "r2"},
			{Key: "detectedLanguage", Value: "en"},
			{Key: "conversationId", Value: "c1"},
			{Key: "createdAt", Value: base.Add(time.Minute)},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, newest, older),
		)

		got, err := s.ListChatMessages(ctx, ChatHistoryQuery{ConversationID: "c1", Limit: 2})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "m2", got[0].Message)
		assert.Equal(mt, "m3", got[1].Message)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, "c1", started.Command.Lookup("filter", "conversationId").StringValue())
		assert.Equal(mt, int64(2), started.Command.Lookup("limit").AsInt64())
		sortKeys, err := started.Command.Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		require.Len(mt, sortKeys, 2)
		assert.Equal(mt, "createdAt", sortKeys[0].Key())
		assert.Equal(mt, int64(-1), sortKeys[0].Value().AsInt64())
	})

	mt.Run("code history excludes code bodies", func(mt *mtest.T) {
		s := newMockedStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "codementor.codeanalyses", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "language", Value: "python"},
			{Key: "summary", Value: "ok"},
			{Key: "errors", Value: bson.A{}},
			{Key: "createdAt", Value: time.Now().UTC()},
		}))

		got, err := s.ListCodeAnalyses(ctx, 10)
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, "python", got[0].Language)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		projection := started.Command.Lookup("projection").Document()
		assert.Equal(mt, int64(0), projection.Lookup("code").AsInt64())
		assert.Equal(mt, int64(0), projection.Lookup("fixed_code").AsInt64())
	})

	mt.Run("malformed id is not found without a round trip", func(mt *mtest.T) {
		s := newMockedStore(mt)
		got, err := s.GetCodeAnalysis(ctx, "not-an-object-id")
		require.NoError(mt, err)
		assert.Nil(mt, got)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

// Runs against a live deployment only when MONGO_TEST_URI is set.
func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "codementor_test_"+primitive.NewObjectID().Hex())
	require.NoError(t, err)
	defer s.Close()

	a := &CodeAnalysis{Code: "print(1)", Language: "python", FixedCode: "print(1)"}
	require.NoError(t, s.CreateCodeAnalysis(ctx, a))

	got, err := s.GetCodeAnalysis(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "print(1)", got.Code)

	missing, err := s.GetCodeAnalysis(ctx, "not-an-object-id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bad := &CodeAnalysis{Code: "x", Language: "cobol"}
	assert.ErrorIs(t, s.CreateCodeAnalysis(ctx, bad), ErrSchemaViolation)
}
