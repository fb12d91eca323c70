package reqresp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Suhaibinator/SRouterTools/pkg/args"
	"github.com/Suhaibinator/SRouterTools/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T, p *Plugin) *router.Router {
	t.Helper()
	r, err := router.NewRouter(router.RouterConfig{Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, r.Install(p))
	return r
}

// capture records the positional arguments each request dispatches with.
func capture(dst *[]any) router.HandlerFunc {
	return func(c *router.Call) (any, error) {
		*dst = c.Positional
		return nil, nil
	}
}

func TestInjectsRequestThenResponse(t *testing.T) {
	t.Parallel()
	r := setup(t, New())

	var got []any
	r.GET("/", capture(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, got, 2)
	gotReq, ok := got[0].(*http.Request)
	require.True(t, ok, "first argument must be the request")
	assert.Equal(t, req.URL.Path, gotReq.URL.Path)
	_, ok = got[1].(http.ResponseWriter)
	assert.True(t, ok, "second argument must be the response writer")
}

func TestPrependsBeforeExistingPositional(t *testing.T) {
	t.Parallel()
	r := setup(t, New(WithPassResponse(false)))

	var got []any
	h := capture(&got)
	r.GET("/", router.HandlerFunc(func(c *router.Call) (any, error) {
		c.Positional = append(c.Positional, "tail")
		return h(c)
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, got, 2)
	assert.IsType(t, &http.Request{}, got[0])
	assert.Equal(t, "tail", got[1])
}

func TestOptionsAreDefaults(t *testing.T) {
	t.Parallel()
	r := setup(t, New(WithPassRequest(false), WithPassResponse(false)))

	v, ok := r.Config().Get(KeyPassRequest)
	require.True(t, ok)
	assert.Equal(t, false, v)
	meta, ok := r.Config().Meta(KeyPassResponse)
	require.True(t, ok)
	assert.NotEmpty(t, meta.Help)

	var off, on []any
	r.GET("/off", capture(&off))
	r.GET("/on", capture(&on), router.WithConfig(KeyPassResponse, true))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/off", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/on", nil))

	assert.Empty(t, off)
	require.Len(t, on, 1)
	_, ok = on[0].(http.ResponseWriter)
	assert.True(t, ok)
}

func TestSkip(t *testing.T) {
	t.Parallel()
	r := setup(t, New())

	var got []any
	r.GET("/", capture(&got), router.WithSkip(Name))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, got)
}

func TestWithArgs(t *testing.T) {
	t.Parallel()
	r := setup(t, New())

	sig := args.Signature{Params: []string{"request", "response", "name"}}
	r.GET("/greet", args.Fill(sig, func(c *router.Call) (any, error) {
		req := c.Positional[0].(*http.Request)
		return req.Method + " " + c.Named["name"].(string), nil
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/greet?name=gopher", nil))
	assert.Equal(t, "GET gopher", w.Body.String())
}
