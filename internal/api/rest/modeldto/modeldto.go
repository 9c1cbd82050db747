// Package modeldto provides locally used types and their structure for data transfer objects.
package modeldto

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

type (
	SignupRequest struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	TokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type,omitempty"`
	}

	Profile struct {
		FullName  string            `json:"full_name"`
		Email     string            `json:"email"`
		CreatedAt modelqr.Timestamp `json:"created_at"`
	}

	QRRequest struct {
		Title           string  `json:"title"`
		URL             string  `json:"url"`
		ForegroundColor string  `json:"foreground_color"`
		BackgroundColor string  `json:"background_color"`
		Size            int     `json:"size"`
		Padding         int     `json:"padding"`
		BorderRadius    int     `json:"border_radius"`
		OverlayText     *string `json:"overlay_text,omitempty"`
	}

	PreviewResponse struct {
		PNGData string `json:"png_data"`
		SVGData string `json:"svg_data"`
	}

	ErrorResponse struct {
		Detail json.RawMessage `json:"detail"`
	}
)

// NewQRRequest converts a preview payload into its wire form.
func NewQRRequest(p modelqr.PreviewPayload) QRRequest {
	req := QRRequest{
		Title:           p.Title,
		URL:             p.URL,
		ForegroundColor: p.ForegroundColor,
		BackgroundColor: p.BackgroundColor,
		Size:            p.Size,
		Padding:         p.Padding,
		BorderRadius:    p.BorderRadius,
	}
	if p.OverlayText != "" {
		overlay := p.OverlayText
		req.OverlayText = &overlay
	}
	return req
}

// Message returns a readable form of the error detail, which is either a string or a list
// of validation entries carrying a "msg" field.
func (e ErrorResponse) Message() string {
	if len(e.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Msg != "" {
				msgs = append(msgs, entry.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(e.Detail)
}

// Decode converts the preview response into raw image bytes for payload.
// svg_data carries the markup as text and png_data the base64-encoded raster.
func (p PreviewResponse) Decode(payload modelqr.PreviewPayload) (modelqr.Render, error) {
	png, err := base64.StdEncoding.DecodeString(p.PNGData)
	if err != nil {
		return modelqr.Render{}, err
	}
	return modelqr.Render{Payload: payload, SVG: []byte(p.SVGData), PNG: png}, nil
}
