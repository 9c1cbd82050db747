package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/golang/mock/gomock"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
)

type requestMatcher struct {
	method   string
	endpoint string
}

// RequestTo matches a gateway.Request by method and endpoint. The endpoint may hold
// path.Match wildcards, e.g. "/api/qr/*/download".
func RequestTo(method, endpoint string) gomock.Matcher {
	return requestMatcher{method: method, endpoint: endpoint}
}

func (m requestMatcher) Matches(x interface{}) bool {
	r, ok := x.(gateway.Request)
	if !ok || r.Method != m.method {
		return false
	}
	if strings.Contains(m.endpoint, "*") {
		ok, err := path.Match(m.endpoint, r.Endpoint)
		return err == nil && ok
	}
	return r.Endpoint == m.endpoint
}

func (m requestMatcher) String() string {
	return fmt.Sprintf("is a %s request to %s", m.method, m.endpoint)
}

// RespondJSON returns a Call action encoding v as the response body and decoding it into
// the request Result, as the gateway does.
func RespondJSON(v interface{}) func(ctx context.Context, r gateway.Request) ([]byte, error) {
	return func(ctx context.Context, r gateway.Request) ([]byte, error) {
		body, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if r.Result != nil {
			if err := json.Unmarshal(body, r.Result); err != nil {
				return nil, err
			}
		}
		return body, nil
	}
}
