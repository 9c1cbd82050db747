// Package terminal implements the ui collaborators on top of a text console.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/danilovkiri/dk_go_qr_forge/internal/ui"
)

// readPassword is replaced in tests to avoid touching the terminal.
var readPassword = term.ReadPassword

// Check interface implementation explicitly
var (
	_ ui.Notifier  = (*Console)(nil)
	_ ui.Navigator = (*Console)(nil)
	_ ui.Confirmer = (*Console)(nil)
	_ ui.Saver     = (*Console)(nil)
)

// LoginHint is printed when the session has to be re-established.
const LoginHint = "Run `qrforge login` to sign in again."

// Console defines object structure and its attributes.
type Console struct {
	mu          sync.Mutex
	inMu        sync.Mutex
	in          *bufio.Reader
	fd          int
	out         io.Writer
	downloadDir string
}

// NewConsole initializes a Console reading answers from in and writing to out. Downloads are
// written into downloadDir.
func NewConsole(in io.Reader, out io.Writer, downloadDir string) *Console {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	if downloadDir == "" {
		downloadDir = "."
	}
	return &Console{in: bufio.NewReader(in), fd: fd, out: out, downloadDir: downloadDir}
}

// Notify prints a transient notice.
func (c *Console) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, "* "+msg)
}

// ToLogin points the user at the login command.
func (c *Console) ToLogin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, LoginHint)
}

// Confirm asks a yes/no question. Anything but an explicit yes declines.
func (c *Console) Confirm(prompt string) bool {
	answer, err := c.Prompt(prompt + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// Prompt prints prompt and reads one trimmed line. A partial last line before EOF is returned.
func (c *Console) Prompt(prompt string) (string, error) {
	c.inMu.Lock()
	defer c.inMu.Unlock()
	c.mu.Lock()
	_, err := fmt.Fprint(c.out, prompt+": ")
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a password without echo when the input is a terminal, and a plain line
// otherwise.
func (c *Console) Password(prompt string) (string, error) {
	if c.fd < 0 || !term.IsTerminal(c.fd) {
		return c.Prompt(prompt)
	}
	c.inMu.Lock()
	defer c.inMu.Unlock()
	c.Printf("%s: ", prompt)
	pw, err := readPassword(c.fd)
	c.Printf("\n")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Save writes data into the download directory under name. An existing file is never
// overwritten: a numeric suffix is added instead.
func (c *Console) Save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	path := filepath.Join(c.downloadDir, base+ext)
	for i := 1; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			path = filepath.Join(c.downloadDir, fmt.Sprintf("%s (%d)%s", base, i, ext))
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return path, nil
	}
}

// Printf writes formatted output without interleaving with notices.
func (c *Console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
