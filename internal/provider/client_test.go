package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hoopwatch/internal/platform/logger"
	"hoopwatch/pkg/platform/sentinel"
)

type HTTPClientSuite struct {
	suite.Suite
	ctx context.Context
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientSuite))
}

func (s *HTTPClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *HTTPClientSuite) newClient(upstream *httptest.Server) *HTTPClient {
	return NewHTTPClient(upstream.URL, "", 2*time.Second, logger.Discard())
}

func (s *HTTPClientSuite) TestFetchIdentity() {
	s.Run("merges team affiliation into the identity", func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/player/LeBron%20James", "/player/LeBron James":
				_, _ = w.Write([]byte(`{"id":2544,"fullName":"LeBron James","position":"F","isActive":true}`))
			case "/player/LeBron%20James/team", "/player/LeBron James/team":
				_, _ = w.Write([]byte(`{"teamCity":"Los Angeles","teamName":"Lakers"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer upstream.Close()

		identity, err := s.newClient(upstream).FetchIdentity(s.ctx, "LeBron James")
		s.Require().NoError(err)
		s.Equal("LeBron James", identity.FullName)
		s.Equal("Los Angeles Lakers", identity.TeamName)
	})

	s.Run("degrades to free agent when the team lookup fails", func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/player/Kawhi" {
				_, _ = w.Write([]byte(`{"id":202695,"fullName":"Kawhi Leonard"}`))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer upstream.Close()

		identity, err := s.newClient(upstream).FetchIdentity(s.ctx, "Kawhi")
		s.Require().NoError(err, "affiliation failure must not fail the identity lookup")
		s.Equal(FreeAgentTeam, identity.TeamName)
	})

	s.Run("unknown player is not found", func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer upstream.Close()

		_, err := s.newClient(upstream).FetchIdentity(s.ctx, "Nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *HTTPClientSuite) TestFetchHistory() {
	s.Run("clamps the limit to the season length", func() {
		var gotLimit string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			_, _ = w.Write([]byte(`[{"gameId":"1","matchup":"LAL vs. BOS","points":30}]`))
		}))
		defer upstream.Close()

		games, err := s.newClient(upstream).FetchHistory(s.ctx, "LeBron James", 500)
		s.Require().NoError(err)
		s.Equal("82", gotLimit)
		s.Len(games, 1)
		s.Equal(30, games[0].Points)
	})

	s.Run("raises the limit to at least one game", func() {
		var gotLimit string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer upstream.Close()

		_, err := s.newClient(upstream).FetchHistory(s.ctx, "LeBron James", 0)
		s.Require().NoError(err)
		s.Equal("1", gotLimit)
	})
}

func (s *HTTPClientSuite) TestTransportFailures() {
	s.Run("provider errors wrap the unavailable sentinel", func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer upstream.Close()

		_, err := s.newClient(upstream).FetchStats(s.ctx, "LeBron James")
		s.Require().ErrorIs(err, sentinel.ErrUnavailable)
	})

	s.Run("unreachable provider wraps the unavailable sentinel", func() {
		upstream := httptest.NewServer(nil)
		upstream.Close()

		_, err := s.newClient(upstream).FetchStats(s.ctx, "LeBron James")
		s.Require().ErrorIs(err, sentinel.ErrUnavailable)
	})
}

func (s *HTTPClientSuite) TestAPIKeyHeader() {
	var gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-apisports-key")
		_, _ = w.Write([]byte(`{"season":"2024-25"}`))
	}))
	defer upstream.Close()

	client := NewHTTPClient(upstream.URL, "secret-key", 2*time.Second, logger.Discard())
	_, err := client.FetchStats(s.ctx, "LeBron James")
	s.Require().NoError(err)
	s.Equal("secret-key", gotKey)
}
