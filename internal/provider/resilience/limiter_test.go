package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type LimiterSuite struct {
	suite.Suite
	now     time.Time
	limiter *Limiter
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	s.limiter = NewLimiter(3, WithLimiterClock(func() time.Time { return s.now }))
}

func (s *LimiterSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *LimiterSuite) TestAdmission() {
	s.Run("admits up to the quota", func() {
		s.True(s.limiter.Allow())
		s.True(s.limiter.Allow())
		s.True(s.limiter.Allow())
	})

	s.Run("rejects immediately over quota", func() {
		for i := 0; i < 3; i++ {
			s.Require().True(s.limiter.Allow())
		}
		s.False(s.limiter.Allow(), "fourth call in the window is shed, not queued")
	})

	s.Run("quota returns as the window slides", func() {
		for i := 0; i < 3; i++ {
			s.Require().True(s.limiter.Allow())
		}
		s.Require().False(s.limiter.Allow())

		s.now = s.now.Add(500 * time.Millisecond)
		s.False(s.limiter.Allow(), "window has not slid past the burst yet")

		s.now = s.now.Add(501 * time.Millisecond)
		s.True(s.limiter.Allow())
	})

	s.Run("rejected calls do not consume quota", func() {
		for i := 0; i < 3; i++ {
			s.Require().True(s.limiter.Allow())
		}
		for i := 0; i < 5; i++ {
			s.Require().False(s.limiter.Allow())
		}

		s.now = s.now.Add(1001 * time.Millisecond)
		s.True(s.limiter.Allow(), "only admitted calls count against the window")
	})
}
