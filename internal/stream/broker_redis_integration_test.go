//go:build integration

package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pairhub/internal/records"
	"pairhub/internal/stream"
	"pairhub/pkg/domain"
	"pairhub/pkg/testutil/containers"
)

type RedisBrokerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	broker *stream.RedisBroker
}

func TestRedisBrokerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBrokerSuite))
}

func (s *RedisBrokerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	broker, err := stream.NewRedisBroker(s.redis.Client)
	s.Require().NoError(err)
	s.broker = broker
}

func (s *RedisBrokerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBrokerSuite) roomCode(code string) domain.RoomCode {
	parsed, err := domain.ParseRoomCode(code)
	s.Require().NoError(err)
	return parsed
}

func (s *RedisBrokerSuite) receive(sub stream.Subscription) records.ChangeEvent {
	select {
	case event, ok := <-sub.Events():
		s.Require().True(ok, "subscription closed before an event arrived")
		return event
	case <-time.After(5 * time.Second):
		s.Require().FailNow("timed out waiting for a change event")
		return records.ChangeEvent{}
	}
}

func (s *RedisBrokerSuite) TestPublishReachesSubscribers() {
	ctx := context.Background()
	code := s.roomCode("sunny-side")

	sub, err := s.broker.Subscribe(ctx, records.Feed.Name, code)
	s.Require().NoError(err)
	defer sub.Close()

	published := records.ChangeEvent{
		Type:  records.EventInsert,
		Table: records.Feed.Name,
		Record: records.Record{
			ID:        domain.NewRecordID(),
			RoomCode:  code,
			AuthorID:  domain.NewUserID(),
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
			Body:      "hello through pub/sub",
		},
	}
	s.Require().NoError(s.broker.Publish(ctx, published))

	event := s.receive(sub)
	s.Equal(records.EventInsert, event.Type)
	s.Equal(published.Record.ID, event.Record.ID)
	s.Equal("hello through pub/sub", event.Record.Body)
}

func (s *RedisBrokerSuite) TestChannelsAreScopedByRoomAndTable() {
	ctx := context.Background()
	ours := s.roomCode("sunny-side")
	theirs := s.roomCode("rainy-day")

	sub, err := s.broker.Subscribe(ctx, records.Feed.Name, ours)
	s.Require().NoError(err)
	defer sub.Close()

	s.Require().NoError(s.broker.Publish(ctx, records.ChangeEvent{
		Type:   records.EventInsert,
		Table:  records.Feed.Name,
		Record: records.Record{ID: domain.NewRecordID(), RoomCode: theirs, Body: "theirs"},
	}))
	s.Require().NoError(s.broker.Publish(ctx, records.ChangeEvent{
		Type:   records.EventInsert,
		Table:  records.Ideas.Name,
		Record: records.Record{ID: domain.NewRecordID(), RoomCode: ours, Body: "wrong table"},
	}))
	s.Require().NoError(s.broker.Publish(ctx, records.ChangeEvent{
		Type:   records.EventInsert,
		Table:  records.Feed.Name,
		Record: records.Record{ID: domain.NewRecordID(), RoomCode: ours, Body: "ours"},
	}))

	event := s.receive(sub)
	s.Equal("ours", event.Record.Body)
}

func (s *RedisBrokerSuite) TestCloseStopsDelivery() {
	ctx := context.Background()
	code := s.roomCode("sunny-side")

	sub, err := s.broker.Subscribe(ctx, records.Feed.Name, code)
	s.Require().NoError(err)

	sub.Close()
	sub.Close()

	s.Require().Eventually(func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "events channel should close")
}
