// Package modelqr provides locally used types and their structure for QR items and previews
// handled between modules.
package modelqr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Format is a downloadable asset format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported format %q, expected svg or png", s)
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ItemID identifies a saved QR item. The backend may send it as a JSON number or string.
type ItemID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ItemID(n.String())
	return nil
}

// Timestamp is a creation time that tolerates timestamps without a zone (read as UTC).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON parses RFC 3339 and zone-less ISO 8601 timestamps.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON writes the timestamp in RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Item is a QR code persisted by the backend.
type Item struct {
	ID              ItemID    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	ForegroundColor string    `json:"foreground_color"`
	BackgroundColor string    `json:"background_color"`
	Size            int       `json:"size"`
	Padding         int       `json:"padding"`
	BorderRadius    int       `json:"border_radius"`
	OverlayText     *string   `json:"overlay_text,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
}

// Payload returns the preview payload equivalent to the item's stored settings.
func (it Item) Payload() PreviewPayload {
	p := PreviewPayload{
		Title:           it.Title,
		URL:             it.URL,
		ForegroundColor: strings.ToLower(it.ForegroundColor),
		BackgroundColor: strings.ToLower(it.BackgroundColor),
		Size:            it.Size,
		Padding:         it.Padding,
		BorderRadius:    it.BorderRadius,
	}
	if p.BackgroundColor == TransparentBackground {
		p.Transparent = true
	}
	if it.OverlayText != nil {
		p.OverlayText = *it.OverlayText
	}
	return p
}

// TransparentBackground is the background color value sent for transparent codes.
const TransparentBackground = "transparent"

// PreviewPayload is the request derived from the generator controls.
// Two payloads are equal iff every field is equal.
type PreviewPayload struct {
	Title           string
	URL             string
	ForegroundColor string
	BackgroundColor string
	Size            int
	Padding         int
	BorderRadius    int
	Transparent     bool
	OverlayText     string
}

// Equal reports whether p and o match field by field.
func (p PreviewPayload) Equal(o PreviewPayload) bool {
	return p == o
}

// PayloadsMatch reports whether two payloads match field by field.
func PayloadsMatch(a, b PreviewPayload) bool {
	return a.Equal(b)
}

// HasValidURL reports whether URL is an absolute http(s) URL with a host.
func (p PreviewPayload) HasValidURL() bool {
	if p.URL == "" {
		return false
	}
	u, err := url.Parse(p.URL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Render holds the encoded images returned for a payload.
type Render struct {
	Payload PreviewPayload
	SVG     []byte
	PNG     []byte
}

// Bytes returns the encoded image for format f.
func (r Render) Bytes(f Format) []byte {
	if f == FormatPNG {
		return r.PNG
	}
	return r.SVG
}

// DefaultFileName is used when a title has no usable characters.
const DefaultFileName = "qr-code"

// FileName derives a download file name from a title: lower-cased, runs of non-alphanumeric
// characters collapsed to a single dash, leading and trailing dashes trimmed.
func FileName(title string, f Format) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	name := sb.String()
	if name == "" {
		name = DefaultFileName
	}
	return name + f.Extension()
}

// AssetRef is a revocable local reference to downloaded asset bytes.
type AssetRef struct {
	ItemID ItemID
	Format Format
	Path   string
	URL    string
}
