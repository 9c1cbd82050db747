package app

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/danilovkiri/dk_go_qr_forge/internal/config"
	"github.com/danilovkiri/dk_go_qr_forge/internal/fakeapi"
	"github.com/danilovkiri/dk_go_qr_forge/internal/scheduler"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/history"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/preview"
	"github.com/danilovkiri/dk_go_qr_forge/internal/ui/terminal"
)

type AppTestSuite struct {
	suite.Suite
	ctx     context.Context
	api     *fakeapi.Server
	ts      *httptest.Server
	cfg     *config.Config
	out     *bytes.Buffer
	console *terminal.Console
	fake    *scheduler.Fake
	app     *App
}

func (suite *AppTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.api = fakeapi.New()
	suite.ts = httptest.NewServer(suite.api)
	dir := suite.T().TempDir()
	suite.cfg = &config.Config{
		APIBaseURL:          suite.ts.URL,
		TokenStoragePath:    filepath.Join(dir, "session.json"),
		StorageKey:          "correct horse battery staple",
		AssetCacheDir:       filepath.Join(dir, "assets"),
		DownloadDir:         filepath.Join(dir, "downloads"),
		RequestTimeout:      5 * time.Second,
		PreviewDebounce:     350 * time.Millisecond,
		NoticeWindow:        3 * time.Second,
		LoginRedirectDelay:  1200 * time.Millisecond,
		CompactHistoryLimit: 8,
		ThumbnailFormat:     "png",
	}
	suite.out = &bytes.Buffer{}
	suite.console = terminal.NewConsole(strings.NewReader(""), suite.out, suite.cfg.DownloadDir)
	suite.fake = scheduler.NewFake(time.Now())
	suite.app = suite.newApp()
	suite.Require().NoError(suite.api.Register("Ann Lee", "ann@example.com", "password1"))
}

func (suite *AppTestSuite) TearDownTest() {
	if suite.app != nil {
		suite.NoError(suite.app.Close())
	}
	suite.ts.Close()
}

// TestAppTestSuite initializes test suite for being accessible
func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (suite *AppTestSuite) newApp() *App {
	a, err := InitApp(suite.ctx, suite.cfg, Options{
		Notifier:  suite.console,
		Navigator: suite.console,
		Confirmer: suite.console,
		Saver:     suite.console,
		Scheduler: suite.fake,
	})
	suite.Require().NoError(err)
	return a
}

func (suite *AppTestSuite) login() {
	suite.Require().NoError(suite.app.Account.Login(suite.ctx, "ann@example.com", "password1"))
	suite.app.History.Wait()
	suite.app.Account.Wait()
}

func (suite *AppTestSuite) TestSaveShowsUpInHistory() {
	recent := suite.console.HistoryTable("Recent")
	suite.app.History.Mount(history.ViewCompact, recent)
	suite.login()

	suite.app.Preview.Edit(func(f *modelqr.FormState) {
		f.Title = "Home"
		f.URL = "https://example.com"
	})
	suite.fake.Advance(suite.cfg.PreviewDebounce)
	suite.Require().Equal(preview.StatePreviewed, suite.app.Preview.State())

	item, err := suite.app.Preview.Save(suite.ctx)
	suite.Require().NoError(err)
	suite.app.History.Wait()

	assert.Equal(suite.T(), preview.StateSaved, suite.app.Preview.State())
	got, ok := suite.app.History.Item(item.ID)
	suite.Require().True(ok)
	assert.Equal(suite.T(), "Home", got.Title)
	assert.Contains(suite.T(), suite.out.String(), "Recent (1)")
	_, ok = recent.Thumbnail(item.ID)
	assert.True(suite.T(), ok)

	path, err := suite.app.Preview.Download(suite.ctx, modelqr.FormatSVG)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), filepath.Join(suite.cfg.DownloadDir, "home.svg"), path)
}

func (suite *AppTestSuite) TestLogoutResetsSynchronously() {
	full := suite.console.HistoryTable("All")
	suite.app.History.Mount(history.ViewFull, full)
	suite.app.Preview.Attach(suite.console.PreviewPane())
	suite.app.Account.Attach(suite.console.ProfileCard())
	suite.login()
	suite.app.Preview.Edit(func(f *modelqr.FormState) { f.URL = "https://example.com" })
	suite.fake.Advance(suite.cfg.PreviewDebounce)
	_, err := suite.app.Preview.Save(suite.ctx)
	suite.Require().NoError(err)
	suite.app.History.Wait()
	suite.Require().Equal(1, suite.app.Cache.Len())

	suite.out.Reset()
	suite.Require().NoError(suite.app.Account.Logout(suite.ctx))

	// no Wait: every controller has already reset when Logout returns
	assert.Equal(suite.T(), 0, suite.app.Cache.Len())
	assert.Equal(suite.T(), preview.StateIdle, suite.app.Preview.State())
	assert.Contains(suite.T(), suite.out.String(), "All: log in to see your QR codes.")
	assert.Contains(suite.T(), suite.out.String(), "Preview cleared.")
	assert.Contains(suite.T(), suite.out.String(), "Not logged in.")
	entries, err := os.ReadDir(suite.cfg.AssetCacheDir)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), entries)
}

func (suite *AppTestSuite) TestSessionSurvivesRestart() {
	suite.login()
	suite.Require().NoError(suite.app.Close())

	suite.app = suite.newApp()
	assert.True(suite.T(), suite.app.Session.IsAuthed())
	profile, err := suite.app.Account.Profile(suite.ctx)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "ann@example.com", profile.Email)

	raw, err := os.ReadFile(suite.cfg.TokenStoragePath)
	suite.Require().NoError(err)
	token, _ := suite.app.Session.Token()
	assert.NotContains(suite.T(), string(raw), token)
}

func (suite *AppTestSuite) TestRejectedSessionRedirects() {
	suite.login()
	suite.api.ExpireAllSessions()
	_, err := suite.app.History.Refresh(suite.ctx)
	suite.Require().Error(err)
	assert.False(suite.T(), suite.app.Session.IsAuthed())
	suite.fake.Advance(suite.cfg.LoginRedirectDelay)
	assert.Equal(suite.T(), 1, strings.Count(suite.out.String(), "Your session has expired."))
	assert.Contains(suite.T(), suite.out.String(), terminal.LoginHint)
}

func TestInitApp_NilDependencies(t *testing.T) {
	_, err := InitApp(context.Background(), nil, Options{})
	assert.Error(t, err)
	_, err = InitApp(context.Background(), &config.Config{}, Options{})
	assert.Error(t, err)
}
