package modelqr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Control limits accepted by the backend.
const (
	MinSize         = 128
	MaxSize         = 1024
	MaxPadding      = 128
	MaxBorderRadius = 120
	MaxOverlayRunes = 4
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// FormState mirrors the generator controls as the user left them.
type FormState struct {
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

// DefaultForm returns the controls' initial values.
func DefaultForm() FormState {
	return FormState{
		ForegroundColor: "#000000",
		BackgroundColor: "#ffffff",
		Size:            512,
		Padding:         16,
		BorderRadius:    0,
	}
}

// Payload derives the preview payload from the controls.
func (f FormState) Payload() PreviewPayload {
	p := PreviewPayload{
		Title:           strings.TrimSpace(f.Title),
		URL:             strings.TrimSpace(f.URL),
		ForegroundColor: strings.ToLower(strings.TrimSpace(f.ForegroundColor)),
		BackgroundColor: strings.ToLower(strings.TrimSpace(f.BackgroundColor)),
		Size:            clamp(f.Size, MinSize, MaxSize),
		Padding:         clamp(f.Padding, 0, MaxPadding),
		BorderRadius:    clamp(f.BorderRadius, 0, MaxBorderRadius),
		Transparent:     f.Transparent,
		OverlayText:     truncateRunes(strings.TrimSpace(f.OverlayText), MaxOverlayRunes),
	}
	if p.Transparent {
		p.BackgroundColor = TransparentBackground
	}
	return p
}

// SetField assigns a control by its name. Known names: title, url, fg, bg, size, padding,
// radius, transparent, overlay.
func (f *FormState) SetField(name, value string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		f.Title = value
	case "url":
		f.URL = value
	case "fg", "foreground", "foreground_color":
		if !hexColor.MatchString(strings.TrimSpace(value)) {
			return fmt.Errorf("invalid color %q, expected #rrggbb", value)
		}
		f.ForegroundColor = value
	case "bg", "background", "background_color":
		if strings.EqualFold(strings.TrimSpace(value), TransparentBackground) {
			f.Transparent = true
			return nil
		}
		if !hexColor.MatchString(strings.TrimSpace(value)) {
			return fmt.Errorf("invalid color %q, expected #rrggbb or transparent", value)
		}
		f.BackgroundColor = value
		f.Transparent = false
	case "size":
		return setInt(&f.Size, value)
	case "padding":
		return setInt(&f.Padding, value)
	case "radius", "border_radius":
		return setInt(&f.BorderRadius, value)
	case "transparent":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		f.Transparent = b
	case "overlay", "overlay_text":
		f.OverlayText = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid number %q", value)
	}
	*dst = n
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
