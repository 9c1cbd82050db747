package fakeapi

import (
	"encoding/csv"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

type ServerTestSuite struct {
	suite.Suite
	api    *Server
	ts     *httptest.Server
	client *resty.Client
	token  string
}

func (suite *ServerTestSuite) SetupTest() {
	suite.api = New()
	suite.ts = httptest.NewServer(suite.api)
	suite.client = resty.New().SetBaseURL(suite.ts.URL)
	suite.Require().NoError(suite.api.Register("Ann", "ann@example.com", "password1"))
	var err error
	suite.token, err = suite.api.IssueToken("ann@example.com")
	suite.Require().NoError(err)
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.ts.Close()
}

// TestServerTestSuite initializes test suite for being accessible
func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func homeRequest() modeldto.QRRequest {
	return modeldto.QRRequest{
		Title:           "Home",
		URL:             "https://example.com",
		ForegroundColor: "#000000",
		BackgroundColor: "#ffffff",
		Size:            512,
		Padding:         16,
	}
}

func (suite *ServerTestSuite) TestSignupAndLogin() {
	type want struct {
		code int
	}
	tests := []struct {
		name string
		body modeldto.SignupRequest
		want want
	}{
		{name: "Correct signup", body: modeldto.SignupRequest{FullName: "Bob", Email: "bob@example.com", Password: "password1"}, want: want{code: 201}},
		{name: "Duplicate email", body: modeldto.SignupRequest{Email: "ANN@example.com", Password: "password1"}, want: want{code: 409}},
		{name: "Short password", body: modeldto.SignupRequest{Email: "eve@example.com", Password: "short"}, want: want{code: 400}},
		{name: "Invalid email", body: modeldto.SignupRequest{Email: "eve", Password: "password1"}, want: want{code: 422}},
	}
	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			res, err := suite.client.R().SetBody(tt.body).Post("/api/auth/signup")
			if err != nil {
				t.Fatal(err)
			}
			assert.Equal(t, tt.want.code, res.StatusCode())
		})
	}

	var token modeldto.TokenResponse
	res, err := suite.client.R().
		SetBody(modeldto.LoginRequest{Email: "bob@example.com", Password: "password1"}).
		SetResult(&token).
		Post("/api/auth/login")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	assert.NotEmpty(suite.T(), token.AccessToken)

	res, err = suite.client.R().
		SetBody(modeldto.LoginRequest{Email: "bob@example.com", Password: "wrong-password"}).
		Post("/api/auth/login")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 401, res.StatusCode())
	assert.Equal(suite.T(), 2, suite.api.Hits(RouteLogin))
}

func (suite *ServerTestSuite) TestAuthorization() {
	res, err := suite.client.R().Get("/api/user/me")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 401, res.StatusCode())

	var profile modeldto.Profile
	res, err = suite.client.R().SetAuthToken(suite.token).SetResult(&profile).Get("/api/user/me")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	assert.Equal(suite.T(), "Ann", profile.FullName)

	suite.api.ExpireAllSessions()
	res, err = suite.client.R().SetAuthToken(suite.token).Get("/api/user/me")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 401, res.StatusCode())
	assert.Equal(suite.T(), 3, suite.api.Hits(RouteMe))
}

func (suite *ServerTestSuite) TestItemLifecycle() {
	var created modelqr.Item
	blank := homeRequest()
	blank.Title = "  "
	res, err := suite.client.R().SetAuthToken(suite.token).SetBody(blank).SetResult(&created).Post("/api/qr")
	suite.Require().NoError(err)
	suite.Require().Equal(201, res.StatusCode())
	assert.Equal(suite.T(), DefaultTitle, created.Title)

	res, err = suite.client.R().SetAuthToken(suite.token).SetBody(homeRequest()).SetResult(&created).Post("/api/qr")
	suite.Require().NoError(err)
	suite.Require().Equal(201, res.StatusCode())

	var items []modelqr.Item
	res, err = suite.client.R().SetAuthToken(suite.token).SetResult(&items).Get("/api/qr/history")
	suite.Require().NoError(err)
	suite.Require().Equal(200, res.StatusCode())
	suite.Require().Len(items, 2)
	assert.Equal(suite.T(), "Home", items[0].Title)
	assert.True(suite.T(), items[0].CreatedAt.After(items[1].CreatedAt.Time))

	id := string(created.ID)
	res, err = suite.client.R().SetAuthToken(suite.token).SetQueryParam("format", "png").Get("/api/qr/" + id + "/download")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	assert.Equal(suite.T(), "image/png", res.Header().Get("Content-Type"))
	assert.True(suite.T(), strings.HasPrefix(string(res.Body()), "\x89PNG"))

	res, err = suite.client.R().SetAuthToken(suite.token).Get("/api/qr/" + id + "/download")
	suite.Require().NoError(err)
	assert.True(suite.T(), strings.HasPrefix(string(res.Body()), "<svg"))

	res, err = suite.client.R().SetAuthToken(suite.token).Delete("/api/qr/" + id)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	res, err = suite.client.R().SetAuthToken(suite.token).Delete("/api/qr/" + id)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 404, res.StatusCode())
	assert.Equal(suite.T(), 1, suite.api.ItemCount())
}

func (suite *ServerTestSuite) TestPreviewValidation() {
	bad := homeRequest()
	bad.URL = "example.com"
	bad.Size = 4096
	var detail modeldto.ErrorResponse
	res, err := suite.client.R().SetAuthToken(suite.token).SetBody(bad).SetError(&detail).Post("/api/qr/preview")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 422, res.StatusCode())
	assert.Contains(suite.T(), detail.Message(), "valid URL")

	var preview modeldto.PreviewResponse
	res, err = suite.client.R().SetAuthToken(suite.token).SetBody(homeRequest()).SetResult(&preview).Post("/api/qr/preview")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	r, err := preview.Decode(modelqr.PreviewPayload{})
	suite.Require().NoError(err)
	assert.True(suite.T(), strings.HasPrefix(string(r.SVG), "<svg"))
	assert.True(suite.T(), strings.HasPrefix(string(r.PNG), "\x89PNG"))
	assert.Equal(suite.T(), 0, suite.api.ItemCount())
}

func (suite *ServerTestSuite) TestExport() {
	_, err := suite.client.R().SetAuthToken(suite.token).SetBody(homeRequest()).Post("/api/qr")
	suite.Require().NoError(err)

	res, err := suite.client.R().SetAuthToken(suite.token).Get("/api/export/csv")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	rows, err := csv.NewReader(strings.NewReader(string(res.Body()))).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	assert.Equal(suite.T(), "title", rows[0][0])
	assert.Equal(suite.T(), "Home", rows[1][0])
	assert.Equal(suite.T(), "qr-1.svg", rows[1][9])
}

func (suite *ServerTestSuite) TestDeleteAccount() {
	_, err := suite.client.R().SetAuthToken(suite.token).SetBody(homeRequest()).Post("/api/qr")
	suite.Require().NoError(err)
	res, err := suite.client.R().SetAuthToken(suite.token).Delete("/api/user/me")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 200, res.StatusCode())
	assert.Equal(suite.T(), 0, suite.api.ItemCount())

	res, err = suite.client.R().SetAuthToken(suite.token).Get("/api/user/me")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 401, res.StatusCode())
}

func TestRenderPNG_Transparent(t *testing.T) {
	req := homeRequest()
	req.BackgroundColor = modelqr.TransparentBackground
	b, err := renderPNG(req)
	assert.NoError(t, err)
	assert.NotEmpty(t, b)
	assert.NotContains(t, renderSVG(req), `width="100%"`)

	req.ForegroundColor = "black"
	_, err = renderPNG(req)
	assert.Error(t, err)
}
