package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/aescanero/lazymint/pkg/domain"
)

func TestRecordKeepsResultShape(t *testing.T) {
	completed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	success := &domain.Status{
		SessionID: "s1",
		AttemptID: "a1",
		Status:    domain.SubmissionStatusSuccess,
		Result: &domain.SubmissionResult{
			Payload: &domain.MintResult{TokenAddress: "0xABC", TokenID: "7", Raw: []byte(`{"tokenId":"7"}`)},
		},
		DisplayLink: "https://rinkeby.rarible.com/token/flow/0xABC:7?tab=details",
		UpdatedAt:   completed,
		CompletedAt: &completed,
	}
	assert.Equal(t, success, fromRecord(toRecord(success)))

	failed := &domain.Status{
		SessionID: "s2",
		Status:    domain.SubmissionStatusError,
		Result:    &domain.SubmissionResult{Message: "rate limited", ErrorKind: domain.ErrorKindMarketplace},
		UpdatedAt: completed,
	}
	assert.Equal(t, failed, fromRecord(toRecord(failed)))

	pending := &domain.Status{SessionID: "s3", Status: domain.SubmissionStatusPending, UpdatedAt: completed}
	assert.Nil(t, fromRecord(toRecord(pending)).Result)
}

// StatusStoreSuite runs against a live MongoDB named by LAZYMINT_TEST_MONGODB_URI.
type StatusStoreSuite struct {
	suite.Suite

	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
	store      *StatusStore
}

func TestStatusStoreSuite(t *testing.T) {
	if os.Getenv("LAZYMINT_TEST_MONGODB_URI") == "" {
		t.Skip("LAZYMINT_TEST_MONGODB_URI not set")
	}
	suite.Run(t, new(StatusStoreSuite))
}

func (suite *StatusStoreSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(os.Getenv("LAZYMINT_TEST_MONGODB_URI")))
	suite.Require().NoErrorf(err, "Could not connect to MongoDB")
	suite.Require().NoErrorf(client.Ping(ctx, nil), "Could not ping MongoDB")

	suite.client = client
	suite.database = client.Database(fmt.Sprintf("test_db_%s", uuid.New()))
}

func (suite *StatusStoreSuite) SetupTest() {
	suite.collection = suite.database.Collection(fmt.Sprintf("test_col_%s", uuid.New()))
	suite.store = NewStatusStore(suite.collection, time.Hour, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	suite.Require().NoErrorf(suite.store.InitSchema(ctx), "Could not initialize schema")
}

func (suite *StatusStoreSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite.Require().NoErrorf(suite.collection.Drop(ctx), "Failed to drop collection after test")
}

func (suite *StatusStoreSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite.Assert().NoErrorf(suite.database.Drop(ctx), "Could not drop database")
	suite.Require().NoErrorf(suite.client.Disconnect(ctx), "Could not disconnect from MongoDB")
}

func (suite *StatusStoreSuite) TestGetUnknownIsIdle() {
	st, err := suite.store.Get(context.Background(), "missing")
	suite.Require().NoError(err)
	suite.Equal(domain.SubmissionStatusIdle, st.Status)
	suite.Nil(st.Result)
}

func (suite *StatusStoreSuite) TestSaveOverwritesCell() {
	ctx := context.Background()

	suite.Require().NoError(suite.store.Save(ctx, &domain.Status{
		SessionID: "s1",
		AttemptID: "a1",
		Status:    domain.SubmissionStatusPending,
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}))
	suite.Require().NoError(suite.store.Save(ctx, &domain.Status{
		SessionID: "s1",
		AttemptID: "a1",
		Status:    domain.SubmissionStatusError,
		Result:    &domain.SubmissionResult{Message: "quota exceeded", ErrorKind: domain.ErrorKindStorage},
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}))

	got, err := suite.store.Get(ctx, "s1")
	suite.Require().NoError(err)
	suite.Equal(domain.SubmissionStatusError, got.Status)
	suite.Require().NotNil(got.Result)
	suite.Equal("quota exceeded", got.Result.Message)
	suite.Equal(domain.ErrorKindStorage, got.Result.ErrorKind)
}

func (suite *StatusStoreSuite) TestListAndDelete() {
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		suite.Require().NoError(suite.store.Save(ctx, &domain.Status{SessionID: id, Status: domain.SubmissionStatusPending}))
	}

	ids, err := suite.store.List(ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"a", "b", "c"}, ids)

	suite.Require().NoError(suite.store.Delete(ctx, "b"))

	ids, err = suite.store.List(ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"a", "c"}, ids)
}
