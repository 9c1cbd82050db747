package modeldto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

func TestErrorResponse_Message(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string detail", body: `{"detail": "QR item not found"}`, want: "QR item not found"},
		{name: "validation list", body: `{"detail": [{"msg": "invalid url"}, {"msg": "size too large"}]}`, want: "invalid url; size too large"},
		{name: "no detail", body: `{}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &e))
			assert.Equal(t, tt.want, e.Message())
		})
	}
}

func TestNewQRRequest(t *testing.T) {
	p := modelqr.PreviewPayload{Title: "Home", URL: "https://example.com", Size: 512}
	b, err := json.Marshal(NewQRRequest(p))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "overlay_text")

	p.OverlayText = "HI"
	req := NewQRRequest(p)
	require.NotNil(t, req.OverlayText)
	assert.Equal(t, "HI", *req.OverlayText)
}

func TestPreviewResponse_Decode(t *testing.T) {
	payload := modelqr.PreviewPayload{Title: "Home", URL: "https://example.com"}
	r, err := PreviewResponse{SVGData: "<svg/>", PNGData: "iVBORw=="}.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg/>"), r.SVG)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, r.PNG)
	assert.Equal(t, payload, r.Payload)

	_, err = PreviewResponse{PNGData: "%%%"}.Decode(payload)
	assert.Error(t, err)
}
