package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"hoopwatch/internal/auth"
	"hoopwatch/internal/platform/logger"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/requestcontext"
	"hoopwatch/pkg/testutil"
)

type allowVerifier struct {
	err error
}

func (v allowVerifier) Verify(context.Context, string) (auth.Principal, error) {
	if v.err != nil {
		return auth.Principal{}, v.err
	}
	return auth.Principal{UserID: "user-1"}, nil
}

type echoHandler struct{}

func (echoHandler) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Owner", requestcontext.UserID(req.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

type RouterSuite struct {
	suite.Suite
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) newRouter(verifier allowVerifier, health map[string]HealthChecker) http.Handler {
	return NewRouter(Deps{
		Verifier: verifier,
		Logger:   logger.Discard(),
		Handlers: []Registrar{echoHandler{}},
		Health:   health,
	})
}

func (s *RouterSuite) TestProbes() {
	s.Run("healthy dependencies answer 200", func() {
		router := s.newRouter(allowVerifier{}, map[string]HealthChecker{
			"redis": func() error { return nil },
		})

		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("a failing dependency degrades the probe", func() {
		router := s.newRouter(allowVerifier{}, map[string]HealthChecker{
			"redis":    func() error { return nil },
			"postgres": func() error { return errors.New("connection refused") },
		})

		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		s.Equal(http.StatusServiceUnavailable, rr.Code)

		var body struct {
			Checks map[string]string `json:"checks"`
		}
		testutil.DecodeJSON(s.T(), rr, &body)
		s.Equal("ok", body.Checks["redis"])
		s.Contains(body.Checks["postgres"], "connection refused")
	})

	s.Run("probes do not require a credential", func() {
		router := s.newRouter(allowVerifier{err: dErrors.New(dErrors.CodeUnauthorized, "nope")}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		s.Equal(http.StatusOK, rr.Code)
	})
}

func (s *RouterSuite) TestAPIGroup() {
	s.Run("verified requests reach the handler with the owner stamped", func() {
		router := s.newRouter(allowVerifier{}, nil)

		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/echo")
		req.Header.Set("Authorization", "Bearer some-token")
		rr := testutil.DoRequest(router, req)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("user-1", rr.Header().Get("X-Owner"))
	})

	s.Run("rejected credentials stop at the middleware", func() {
		router := s.newRouter(allowVerifier{err: dErrors.New(dErrors.CodeUnauthorized, "bad token")}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/api/echo"))
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("every response carries a request ID", func() {
		router := s.newRouter(allowVerifier{}, nil)

		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/echo")
		rr := testutil.DoRequest(router, req)
		s.NotEmpty(rr.Header().Get("X-Request-ID"))
	})

	s.Run("a caller-supplied request ID is echoed back", func() {
		router := s.newRouter(allowVerifier{}, nil)

		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/echo")
		req.Header.Set("X-Request-ID", "req-42")
		rr := testutil.DoRequest(router, req)
		s.Equal("req-42", rr.Header().Get("X-Request-ID"))
	})
}
