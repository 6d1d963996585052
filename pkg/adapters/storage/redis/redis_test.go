package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/aescanero/lazymint/pkg/domain"
)

type StatusStoreSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *StatusStore
}

func (suite *StatusStoreSuite) SetupTest() {
	suite.mr = miniredis.RunT(suite.T())
	suite.client = redis.NewClient(&redis.Options{Addr: suite.mr.Addr()})
	suite.store = NewStatusStore(suite.client, time.Hour, zap.NewNop())
}

func (suite *StatusStoreSuite) TearDownTest() {
	suite.Assert().NoError(suite.client.Close())
}

func (suite *StatusStoreSuite) TestGetUnknownIsIdle() {
	st, err := suite.store.Get(context.Background(), "missing")
	suite.Require().NoError(err)
	suite.Equal(domain.SubmissionStatusIdle, st.Status)
	suite.Nil(st.Result)
}

func (suite *StatusStoreSuite) TestSaveAndGet() {
	ctx := context.Background()
	completed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	want := &domain.Status{
		SessionID: "s1",
		AttemptID: "a1",
		Status:    domain.SubmissionStatusSuccess,
		Result: &domain.SubmissionResult{
			Payload: &domain.MintResult{TokenAddress: "0xABC", TokenID: "7"},
		},
		DisplayLink: "https://rinkeby.rarible.com/token/flow/0xABC:7?tab=details",
		UpdatedAt:   completed,
		CompletedAt: &completed,
	}
	suite.Require().NoError(suite.store.Save(ctx, want))

	got, err := suite.store.Get(ctx, "s1")
	suite.Require().NoError(err)
	suite.Equal(want.Status, got.Status)
	suite.Equal(want.AttemptID, got.AttemptID)
	suite.Equal(want.DisplayLink, got.DisplayLink)
	suite.Equal("7", got.Result.Payload.TokenID)
	suite.True(completed.Equal(*got.CompletedAt))
}

func (suite *StatusStoreSuite) TestSaveSetsTTL() {
	suite.Require().NoError(suite.store.Save(context.Background(), &domain.Status{SessionID: "s1"}))
	suite.Equal(time.Hour, suite.mr.TTL(getStatusKey("s1")))
}

func (suite *StatusStoreSuite) TestListAndDelete() {
	ctx := context.Background()
	suite.Require().NoError(suite.store.Save(ctx, &domain.Status{SessionID: "b"}))
	suite.Require().NoError(suite.store.Save(ctx, &domain.Status{SessionID: "a"}))

	ids, err := suite.store.List(ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"a", "b"}, ids)

	suite.Require().NoError(suite.store.Delete(ctx, "a"))
	ids, err = suite.store.List(ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"b"}, ids)
}

func TestStatusStoreSuite(t *testing.T) {
	suite.Run(t, new(StatusStoreSuite))
}
