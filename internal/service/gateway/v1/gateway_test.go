package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/fakeapi"
	"github.com/danilovkiri/dk_go_qr_forge/internal/mocks"
	"github.com/danilovkiri/dk_go_qr_forge/internal/scheduler"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	session "github.com/danilovkiri/dk_go_qr_forge/internal/service/session/v1"
	"github.com/danilovkiri/dk_go_qr_forge/internal/storage/inmemory"
)

type GatewayTestSuite struct {
	suite.Suite
	ctx      context.Context
	api      *fakeapi.Server
	ts       *httptest.Server
	cfg      *config.Config
	ctrl     *gomock.Controller
	notifier *mocks.MockNotifier
	nav      *mocks.MockNavigator
	sched    *scheduler.Fake
	session  *session.Session
	gateway  *Gateway
}

func (suite *GatewayTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.api = fakeapi.New()
	suite.ts = httptest.NewServer(suite.api)
	suite.cfg = &config.Config{
		APIBaseURL:         suite.ts.URL,
		RequestTimeout:     5 * time.Second,
		NoticeWindow:       3 * time.Second,
		LoginRedirectDelay: 1200 * time.Millisecond,
	}
	suite.ctrl = gomock.NewController(suite.T())
	suite.notifier = mocks.NewMockNotifier(suite.ctrl)
	suite.nav = mocks.NewMockNavigator(suite.ctrl)
	suite.sched = scheduler.NewFake(time.Now())
	var err error
	suite.session, err = session.NewSession(suite.ctx, inmemory.InitStorage(), events.NewBus(), suite.sched)
	suite.Require().NoError(err)
	suite.gateway, err = InitGateway(suite.cfg, suite.session, suite.notifier, suite.nav, suite.sched)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.api.Register("Ann", "ann@example.com", "password1"))
}

func (suite *GatewayTestSuite) TearDownTest() {
	suite.ts.Close()
	suite.ctrl.Finish()
}

// TestGatewayTestSuite initializes test suite for being accessible
func TestGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}

func (suite *GatewayTestSuite) login() {
	token, err := suite.api.IssueToken("ann@example.com")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.session.Set(suite.ctx, token))
}

func (suite *GatewayTestSuite) TestCallWithoutSession() {
	suite.notifier.EXPECT().Notify(LoginRequiredNotice).Times(1)
	suite.nav.EXPECT().ToLogin().Times(1)

	_, err := suite.gateway.Call(suite.ctx, gateway.Get(gateway.EndpointHistory, nil))
	assert.True(suite.T(), serviceErrors.IsUnauthorized(err))
	_, err = suite.gateway.Call(suite.ctx, gateway.Get(gateway.EndpointMe, nil))
	assert.True(suite.T(), serviceErrors.IsUnauthorized(err))
	assert.Equal(suite.T(), 0, suite.api.Hits(fakeapi.RouteHistory))
	assert.Equal(suite.T(), 0, suite.api.Hits(fakeapi.RouteMe))
	suite.sched.Advance(suite.cfg.LoginRedirectDelay)
}

func (suite *GatewayTestSuite) TestCallDecodesResult() {
	suite.login()
	var profile modeldto.Profile
	body, err := suite.gateway.Call(suite.ctx, gateway.Get(gateway.EndpointMe, &profile))
	suite.Require().NoError(err)
	assert.NotEmpty(suite.T(), body)
	assert.Equal(suite.T(), "Ann", profile.FullName)
	assert.Equal(suite.T(), "ann@example.com", profile.Email)
}

func (suite *GatewayTestSuite) TestCallWithQuery() {
	suite.login()
	var item modelqr.Item
	p := modelqr.DefaultForm()
	p.Title, p.URL = "Home", "https://example.com"
	_, err := suite.gateway.Call(suite.ctx, gateway.Post(gateway.EndpointCreate, modeldto.NewQRRequest(p.Payload()), &item))
	suite.Require().NoError(err)

	req := gateway.Get(gateway.DownloadEndpoint(string(item.ID)), nil)
	req.Query = map[string]string{"format": "png"}
	body, err := suite.gateway.Call(suite.ctx, req)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "\x89PNG", string(body[:4]))
}

func (suite *GatewayTestSuite) TestCallRequestError() {
	suite.login()
	_, err := suite.gateway.Call(suite.ctx, gateway.Delete(gateway.ItemEndpoint("missing")))
	var reqErr *serviceErrors.RequestError
	suite.Require().True(errors.As(err, &reqErr))
	assert.Equal(suite.T(), 404, reqErr.StatusCode)
	assert.Equal(suite.T(), "QR item not found", reqErr.Detail)
	assert.False(suite.T(), serviceErrors.IsUnauthorized(err))
	assert.True(suite.T(), suite.session.IsAuthed())
}

func (suite *GatewayTestSuite) TestCallTransportError() {
	suite.login()
	suite.ts.Close()
	_, err := suite.gateway.Call(suite.ctx, gateway.Get(gateway.EndpointMe, nil))
	var transportErr *serviceErrors.TransportError
	assert.True(suite.T(), errors.As(err, &transportErr))
	assert.True(suite.T(), suite.session.IsAuthed())
}

func (suite *GatewayTestSuite) TestConcurrentUnauthorizedNotifiesOnce() {
	const calls = 3
	// hold requests until all of them carry the credential to the server
	var arrived int32
	barrier := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&arrived, 1) == calls {
			close(barrier)
		}
		<-barrier
		suite.api.ServeHTTP(w, r)
	}))
	defer ts.Close()
	cfg := *suite.cfg
	cfg.APIBaseURL = ts.URL
	gw, err := InitGateway(&cfg, suite.session, suite.notifier, suite.nav, suite.sched)
	suite.Require().NoError(err)

	suite.login()
	suite.api.ExpireAllSessions()
	suite.notifier.EXPECT().Notify(SessionExpiredNotice).Times(1)
	suite.nav.EXPECT().ToLogin().Times(1)

	var wg sync.WaitGroup
	errs := make([]error, calls)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = gw.Call(suite.ctx, gateway.Get(gateway.EndpointHistory, nil))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(suite.T(), serviceErrors.IsUnauthorized(err))
	}
	assert.False(suite.T(), suite.session.IsAuthed())
	assert.Equal(suite.T(), calls, suite.api.Hits(fakeapi.RouteHistory))

	// the redirect waits for the configured delay
	suite.sched.Advance(cfg.LoginRedirectDelay - time.Millisecond)
	suite.sched.Advance(time.Millisecond)
}

func (suite *GatewayTestSuite) TestNoticeWindow() {
	suite.notifier.EXPECT().Notify(SessionExpiredNotice).Times(2)
	suite.nav.EXPECT().ToLogin().Times(2)

	expire := func() {
		suite.login()
		suite.api.ExpireAllSessions()
		_, err := suite.gateway.Call(suite.ctx, gateway.Get(gateway.EndpointMe, nil))
		assert.True(suite.T(), serviceErrors.IsUnauthorized(err))
	}
	expire()
	suite.sched.Advance(2 * time.Second)
	// still within the window: suppressed
	expire()
	suite.sched.Advance(2 * time.Second)
	expire()
	suite.sched.Advance(2 * time.Second)
}

func (suite *GatewayTestSuite) TestExpiredTokenSkipsNetwork() {
	claims := jwt.MapClaims{"sub": "1", "exp": suite.sched.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("whatever"))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.session.Set(suite.ctx, token))
	suite.notifier.EXPECT().Notify(SessionExpiredNotice).Times(1)
	suite.nav.EXPECT().ToLogin().Times(1)

	_, err = suite.gateway.Call(suite.ctx, gateway.Get(gateway.EndpointHistory, nil))
	assert.True(suite.T(), serviceErrors.IsUnauthorized(err))
	assert.Equal(suite.T(), 0, suite.api.Hits(fakeapi.RouteHistory))
	assert.False(suite.T(), suite.session.IsAuthed())
	suite.sched.Advance(suite.cfg.LoginRedirectDelay)
}

func (suite *GatewayTestSuite) TestCallPublic() {
	var token modeldto.TokenResponse
	_, err := suite.gateway.CallPublic(suite.ctx, gateway.Post(gateway.EndpointLogin,
		modeldto.LoginRequest{Email: "ann@example.com", Password: "password1"}, &token))
	suite.Require().NoError(err)
	assert.NotEmpty(suite.T(), token.AccessToken)

	// invalid credentials are not a session signal
	_, err = suite.gateway.CallPublic(suite.ctx, gateway.Post(gateway.EndpointLogin,
		modeldto.LoginRequest{Email: "ann@example.com", Password: "nope-nope"}, nil))
	assert.False(suite.T(), serviceErrors.IsUnauthorized(err))
	assert.Equal(suite.T(), 401, serviceErrors.StatusCode(err))
}

func (suite *GatewayTestSuite) TestCallPublicWithBearer() {
	token, err := suite.api.IssueToken("ann@example.com")
	suite.Require().NoError(err)
	req := gateway.Post(gateway.EndpointLogout, nil, nil)
	req.Bearer = token
	_, err = suite.gateway.CallPublic(suite.ctx, req)
	suite.Require().NoError(err)

	// a rejected explicit credential neither notifies nor redirects
	suite.api.ExpireAllSessions()
	_, err = suite.gateway.CallPublic(suite.ctx, req)
	assert.Equal(suite.T(), 401, serviceErrors.StatusCode(err))
	assert.Equal(suite.T(), 0, suite.sched.Pending())
}

func TestInitGateway_NilDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	_, err := InitGateway(nil, nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = InitGateway(&config.Config{}, nil, mocks.NewMockNotifier(ctrl), mocks.NewMockNavigator(ctrl), nil)
	assert.Error(t, err)
}
