package fakeapi

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

// renderSVG draws a placeholder that reflects every styling field, so different payloads
// yield different bytes. It does not encode the URL.
func renderSVG(req modeldto.QRRequest) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		req.Size, req.Size, req.Size, req.Size)
	if req.BackgroundColor != modelqr.TransparentBackground {
		fmt.Fprintf(&buf, `<rect width="100%%" height="100%%" fill="%s"/>`, req.BackgroundColor)
	}
	inner := req.Size - 2*req.Padding
	fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" rx="%d" fill="%s"/>`,
		req.Padding, req.Padding, inner, inner, req.BorderRadius, req.ForegroundColor)
	fmt.Fprintf(&buf, `<desc>`)
	_ = xml.EscapeText(&buf, []byte(req.URL))
	fmt.Fprintf(&buf, `</desc>`)
	if req.OverlayText != nil && *req.OverlayText != "" {
		fmt.Fprintf(&buf, `<text x="50%%" y="50%%" text-anchor="middle">`)
		_ = xml.EscapeText(&buf, []byte(*req.OverlayText))
		fmt.Fprintf(&buf, `</text>`)
	}
	buf.WriteString(`</svg>`)
	return buf.String()
}

// renderPNG rasterizes the same placeholder at the requested size.
func renderPNG(req modeldto.QRRequest) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, req.Size, req.Size))
	if req.BackgroundColor != modelqr.TransparentBackground {
		bg, err := parseHex(req.BackgroundColor)
		if err != nil {
			return nil, err
		}
		draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	}
	fg, err := parseHex(req.ForegroundColor)
	if err != nil {
		return nil, err
	}
	inner := image.Rect(req.Padding, req.Padding, req.Size-req.Padding, req.Size-req.Padding)
	draw.Draw(img, inner, &image.Uniform{C: fg}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseHex(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("%q: not a hex color", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
