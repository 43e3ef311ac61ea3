package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dossier/internal/dossier/handler/mocks"
	"dossier/internal/dossier/models"
	"dossier/internal/platform/metrics"
	"dossier/internal/platform/middleware"
	"dossier/internal/storage/pool"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Resolver,PoolStats
type HandlerSuite struct {
	suite.Suite
	resolver *mocks.MockResolver
	pools    *mocks.MockPoolStats
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.resolver = mocks.NewMockResolver(ctrl)
	s.pools = mocks.NewMockPoolStats(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.resolver, s.pools, logger, metrics.NewWith(prometheus.NewRegistry()))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestResolveReturnsRecord() {
	s.resolver.EXPECT().
		Resolve(gomock.Any(), "111.444.777-35", "req-42").
		Return(&models.CompositeRecord{
			Basic:    models.Basic{Name: "MARIA SILVA", CPF: "11144477735", ContactID: 42},
			Contacts: models.Contacts{Emails: []string{}, Phones: []string{"11999990000"}},
		}, nil)

	w := s.do(http.MethodPost, "/consulta/cpf", ResolveRequest{CPF: "111.444.777-35"},
		map[string]string{middleware.RequestIDHeader: "req-42"})

	s.Equal(http.StatusOK, w.Code)
	s.Equal("req-42", w.Header().Get(middleware.RequestIDHeader))
	s.Equal("application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	basic := body["dados_basicos"].(map[string]any)
	s.Equal("MARIA SILVA", basic["nome"])
	s.NotContains(basic, "contact_id")
	s.Equal([]any{"11999990000"}, body["contatos"].(map[string]any)["telefones"])
	s.NotContains(body, "indisponiveis")
}

func (s *HandlerSuite) TestResolveErrorMapping() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid cpf", dErrors.New(dErrors.CodeInvalidInput, "cpf check digits do not match"), http.StatusBadRequest, "invalid_input"},
		{"not found", dErrors.New(dErrors.CodeNotFound, "cpf not found"), http.StatusNotFound, "not_found"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "deadline exceeded"), http.StatusGatewayTimeout, "timeout"},
		{"routing", dErrors.New(dErrors.CodeRouting, "no shard"), http.StatusInternalServerError, "routing_error"},
		{"primary down", dErrors.New(dErrors.CodeUnavailable, "primary store unavailable"), http.StatusServiceUnavailable, "store_unavailable"},
		{"shutting down", dErrors.New(dErrors.CodeShuttingDown, "draining"), http.StatusServiceUnavailable, "shutting_down"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.resolver.EXPECT().Resolve(gomock.Any(), "11144477735", gomock.Any()).Return(nil, tt.err)

			w := s.do(http.MethodPost, "/consulta/cpf", `{"cpf":"11144477735"}`, nil)

			testutil.AssertStatusAndError(s.T(), w, tt.status, tt.code)
		})
	}
}

func (s *HandlerSuite) TestInternalErrorHidesMessage() {
	s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "driver blew up"))

	w := s.do(http.MethodPost, "/consulta/cpf", `{"cpf":"11144477735"}`, nil)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "driver")
}

func (s *HandlerSuite) TestMalformedBody() {
	w := s.do(http.MethodPost, "/consulta/cpf", `{"cpf":`, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestGeneratedRequestIDReachesResolver() {
	var seen string
	s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, _ string, id string) (*models.CompositeRecord, error) {
			seen = id
			return &models.CompositeRecord{}, nil
		})

	w := s.do(http.MethodPost, "/consulta/cpf", `{"cpf":"11144477735"}`, nil)

	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(seen)
	s.Equal(seen, w.Header().Get(middleware.RequestIDHeader))
}

func (s *HandlerSuite) TestHealthReportsPools() {
	s.pools.EXPECT().Stats().Return([]pool.Stats{
		{Store: "SRS_CONTATOS", Capacity: 10, Idle: 2, Outstanding: 1},
	})

	w := s.do(http.MethodGet, "/health", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	body := testutil.UnmarshalResponse[HealthResponse](s.T(), w)
	s.Equal("ok", body.Status)
	s.Equal("SRS_CONTATOS", body.Pools[0].Store)
	s.Equal(1, body.Pools[0].Outstanding)
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	w := s.do(http.MethodGet, "/metrics", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}
