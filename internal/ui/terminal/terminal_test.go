package terminal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

func TestConsole_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes without newline", input: "YES", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty answer", input: "\n", want: false},
		{name: "closed input", input: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(strings.NewReader(tt.input), &out, t.TempDir())
			assert.Equal(t, tt.want, c.Confirm("Delete it?"))
			assert.Equal(t, "Delete it? [y/N]: ", out.String())
		})
	}
}

func TestConsole_PasswordFromPipe(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("secret123\n"), &out, t.TempDir())
	pw, err := c.Password("Password")
	require.NoError(t, err)
	assert.Equal(t, "secret123", pw)
}

func TestConsole_NotifyAndLogin(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, t.TempDir())
	c.Notify("QR code saved.")
	c.ToLogin()
	assert.Equal(t, "* QR code saved.\n"+LoginHint+"\n", out.String())
}

func TestConsole_SaveDoesNotOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	c := NewConsole(strings.NewReader(""), &bytes.Buffer{}, dir)

	first, err := c.Save("home.svg", []byte("one"))
	require.NoError(t, err)
	second, err := c.Save("home.svg", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "home.svg"), first)
	assert.Equal(t, filepath.Join(dir, "home (1).svg"), second)
	b, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
	b, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}

func TestHistoryTable(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, t.TempDir())
	v := c.HistoryTable("Recent")

	v.ShowLoggedOut()
	assert.Equal(t, "Recent: log in to see your QR codes.\n", out.String())

	out.Reset()
	v.ShowItems([]modelqr.Item{{
		ID:        "7",
		Title:     "Home",
		URL:       "https://example.com",
		CreatedAt: modelqr.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)},
	}})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Recent (1)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "ID"))
	assert.Contains(t, lines[2], "Home")
	assert.Contains(t, lines[2], "2024-05-01 10:00")

	v.ShowThumbnail("7", modelqr.AssetRef{ItemID: "7", Path: "/tmp/a.png"})
	ref, ok := v.Thumbnail("7")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/a.png", ref.Path)

	v.ShowItems(nil)
	_, ok = v.Thumbnail("7")
	assert.False(t, ok)
}

func TestPreviewPaneAndProfileCard(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, t.TempDir())

	pane := c.PreviewPane()
	pane.ShowPreview(modelqr.Render{
		Payload: modelqr.PreviewPayload{URL: "https://example.com", Size: 512, ForegroundColor: "#000000", BackgroundColor: "#ffffff"},
		SVG:     []byte("<svg/>"),
		PNG:     []byte{1, 2},
	})
	pane.SetSaveEnabled(true)
	assert.True(t, pane.SaveEnabled())
	assert.Contains(t, out.String(), "svg 6 bytes, png 2 bytes")

	out.Reset()
	card := c.ProfileCard()
	card.ShowProfile(modeldto.Profile{FullName: "Ann Lee", Email: "ann@example.com"})
	assert.Contains(t, out.String(), "Ann Lee")
	assert.Contains(t, out.String(), "Member since: unknown")
}
