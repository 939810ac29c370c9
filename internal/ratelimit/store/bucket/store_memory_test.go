package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = New(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.AllowN(s.ctx, "ip:first", 1, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		for i := range testLimit {
			result, err := s.store.AllowN(s.ctx, "ip:limit", 1, testLimit, testWindow)
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.Equal(testLimit-i-1, result.Remaining)
		}
	})

	s.Run("request over limit denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.AllowN(s.ctx, "ip:over", 1, testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.now = s.now.Add(10 * time.Second)
		result, err := s.store.AllowN(s.ctx, "ip:over", 1, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(50*time.Second, result.RetryAfter)
	})

	s.Run("window slides", func() {
		for range testLimit {
			_, err := s.store.AllowN(s.ctx, "ip:slide", 1, testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.now = s.now.Add(testWindow + time.Millisecond)
		result, err := s.store.AllowN(s.ctx, "ip:slide", 1, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestAllowN() {
	s.Run("cost of 5 consumes 5 tokens", func() {
		result, err := s.store.AllowN(s.ctx, "ip:five", 5, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(5, result.Remaining)
	})

	s.Run("cost greater than remaining denied and not recorded", func() {
		first, err := s.store.AllowN(s.ctx, "ip:deny", 7, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(first.Allowed)

		denied, err := s.store.AllowN(s.ctx, "ip:deny", 4, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(denied.Allowed)

		fits, err := s.store.AllowN(s.ctx, "ip:deny", 3, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(fits.Allowed)
		s.Equal(0, fits.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestResetAndSweep() {
	_, err := s.store.AllowN(s.ctx, "ip:reset", testLimit, testLimit, testWindow)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(s.ctx, "ip:reset"))

	result, err := s.store.AllowN(s.ctx, "ip:reset", testLimit, testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)

	_, err = s.store.AllowN(s.ctx, "ip:idle", 1, testLimit, testWindow)
	s.Require().NoError(err)
	s.now = s.now.Add(2 * testWindow)
	s.Equal(2, s.store.Sweep())
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	limit := 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 200 {
		wg.Go(func() {
			result, err := s.store.AllowN(s.ctx, "ip:concurrent", 1, limit, testWindow)
			s.NoError(err)
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	s.Equal(limit, allowed)
}
