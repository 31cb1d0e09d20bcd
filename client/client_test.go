package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/chrisvdg/dioadmin/resource"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL})
	assert.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	assert := assert.New(t)

	_, err := New(Config{})
	assert.Error(err)
}

func TestFetchPage(t *testing.T) {
	assert := assert.New(t)

	var seen *http.Request
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [{"id":"u1"},{"id":"u2"}],
			"meta": {"total":23,"page":2,"limit":10,"totalPages":3,"hasNext":true,"hasPrev":true,"from":11,"to":20}
		}`))
	}))
	c.SetToken("secret-token")

	page, err := c.FetchPage(context.Background(),
		resource.Users,
		resource.PageRequest{Page: 2, Limit: 10},
		resource.Filters{}.With("role", "parish"))
	assert.NoError(err)

	assert.Equal("/auth/users", seen.URL.Path)
	assert.Equal("2", seen.URL.Query().Get("page"))
	assert.Equal("10", seen.URL.Query().Get("limit"))
	assert.Equal("parish", seen.URL.Query().Get("role"))
	assert.Equal("Bearer secret-token", seen.Header.Get("Authorization"))

	assert.Len(page.Items, 2)
	assert.Equal(23, page.Meta.Total)
	assert.Equal(3, page.Meta.TotalPages)
	assert.True(page.Meta.HasNext)
}

func TestFetchPageEmptyData(t *testing.T) {
	assert := assert.New(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null, "meta": {"total":0,"page":1,"limit":10}}`))
	}))

	page, err := c.FetchPage(context.Background(), resource.Users, resource.PageRequest{}, nil)
	assert.NoError(err)
	assert.NotNil(page.Items)
	assert.Empty(page.Items)
}

func TestFetchPageUnknownResource(t *testing.T) {
	assert := assert.New(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := c.FetchPage(context.Background(), "trombones", resource.PageRequest{}, nil)
	assert.True(errors.Is(err, ErrUnknownResource))
}

func TestMutatePathAndMethod(t *testing.T) {
	assert := assert.New(t)

	type call struct {
		method, path string
	}
	var calls []call
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		req      MutationRequest
		expected call
	}{
		{
			MutationRequest{Resource: resource.Users, ID: "u1", Op: OpReplace, Payload: map[string]string{"name": "x"}},
			call{http.MethodPut, "/auth/users/u1"},
		},
		{
			MutationRequest{Resource: resource.Payments, ID: "p1", Action: "confirm", Op: OpUpdate},
			call{http.MethodPatch, "/payments/p1/confirm"},
		},
		{
			MutationRequest{Resource: resource.Levies, ID: "l1", Op: OpDelete},
			call{http.MethodDelete, "/levies/l1"},
		},
		{
			MutationRequest{Resource: resource.Wallet, Action: "dynamic-account", Op: OpCreate},
			call{http.MethodPost, "/wallet/dynamic-account"},
		},
	}

	for _, tc := range cases {
		_, err := c.Mutate(context.Background(), tc.req)
		assert.NoError(err)
	}
	assert.Len(calls, len(cases))
	for i, tc := range cases {
		assert.Equal(tc.expected, calls[i])
	}

	_, err := c.Mutate(context.Background(), MutationRequest{Resource: resource.Users, Op: Operation("upsert")})
	assert.Error(err)
}

func TestErrorTaxonomy(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		status   int
		body     string
		sentinel error
	}{
		{http.StatusUnauthorized, `{"message":"Unauthorized"}`, ErrAuth},
		{http.StatusForbidden, `{"message":"Forbidden"}`, ErrAuth},
		{http.StatusNotFound, `{"message":"User not found"}`, ErrValidation},
		{http.StatusUnprocessableEntity, `{"message":["email must be an email","name should not be empty"]}`, ErrValidation},
		{http.StatusConflict, `{"message":"Report was modified"}`, ErrConflict},
		{http.StatusBadRequest, `{"message":"stale version field"}`, ErrConflict},
		{http.StatusInternalServerError, `{"message":"Internal server error"}`, ErrServer},
		{http.StatusBadGateway, ``, ErrServer},
	}

	for _, tc := range cases {
		status, body := tc.status, tc.body
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))

		_, err := c.FetchPage(context.Background(), resource.Users, resource.PageRequest{}, nil)
		assert.True(errors.Is(err, tc.sentinel), "status %d should map to %v, got %v", tc.status, tc.sentinel, err)

		var apiErr *APIError
		assert.True(errors.As(err, &apiErr))
		assert.Equal(tc.status, apiErr.Status)
	}
}

func TestErrorMessageList(t *testing.T) {
	assert := assert.New(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":["email must be an email","name should not be empty"]}`))
	}))

	_, err := c.FetchOne(context.Background(), resource.Users, "u1")
	var apiErr *APIError
	assert.True(errors.As(err, &apiErr))
	assert.Equal("email must be an email; name should not be empty", apiErr.Message)
}

func TestTimeoutIsTransportError(t *testing.T) {
	assert := assert.New(t)

	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	assert.NoError(err)

	_, err = c.FetchPage(context.Background(), resource.Users, resource.PageRequest{}, nil)
	assert.True(errors.Is(err, ErrTransport))
}

func TestLoginAttachesToken(t *testing.T) {
	assert := assert.New(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/auth/login", r.URL.Path)
		var creds Credentials
		assert.NoError(json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal("admin@diocese.org", creds.Email)
		w.Write([]byte(`{"access_token":"jwt-goes-here"}`))
	}))

	err := c.Login(context.Background(), Credentials{Email: "admin@diocese.org", Password: "pw"})
	assert.NoError(err)
	assert.Equal("jwt-goes-here", c.Token())
}

func TestLoginAdmin(t *testing.T) {
	assert := assert.New(t)

	role := resource.RoleAdmin
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write([]byte(`{"access_token":"tok"}`))
		case "/auth/profile":
			json.NewEncoder(w).Encode(Profile{ID: "a1", Email: "admin@diocese.org", Role: role})
		default:
			http.NotFound(w, r)
		}
	}))

	profile, err := c.LoginAdmin(context.Background(), Credentials{Email: "admin@diocese.org", Password: "pw"})
	assert.NoError(err)
	assert.Equal("a1", profile.ID)
	assert.Equal("tok", c.Token())

	// A non-admin account is rejected and its token discarded
	role = "parish"
	_, err = c.LoginAdmin(context.Background(), Credentials{Email: "parish@diocese.org", Password: "pw"})
	assert.True(errors.Is(err, ErrNotAdmin))
	assert.Empty(c.Token())
}

func TestLoginBadCredentials(t *testing.T) {
	assert := assert.New(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))

	err := c.Login(context.Background(), Credentials{Email: "admin@diocese.org", Password: "nope"})
	assert.True(errors.Is(err, ErrAuth))
	assert.Empty(c.Token())
}
