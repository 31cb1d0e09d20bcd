package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chrisvdg/dioadmin/cache"
	"github.com/chrisvdg/dioadmin/client"
	"github.com/chrisvdg/dioadmin/resource"
	"github.com/chrisvdg/dioadmin/view"
)

func newHandlers(c *Config, sessions *sessionStore) *handlers {
	return &handlers{
		c:        c,
		sessions: sessions,
	}
}

type handlers struct {
	c        *Config
	sessions *sessionStore
}

// listPayload is what list endpoints render for the presentation layer
type listPayload[T any] struct {
	Data  []T               `json:"data"`
	Meta  resource.PageMeta `json:"meta"`
	Stale bool              `json:"stale"`
}

type errorPayload struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(body); err != nil {
		log.Errorf("failed to write response: %s", err)
	}
}

func writeError(res http.ResponseWriter, status int, kind, message string) {
	var p errorPayload
	p.Error.Kind = kind
	p.Error.Message = message
	writeJSON(res, status, p)
}

// writeTaxonomyError maps the client error taxonomy onto dashboard
// responses. An auth rejection from the backend invalidates the whole
// session: the credential is discarded and the operator logs in again.
func (h *handlers) writeTaxonomyError(res http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, client.ErrAuth):
		if sess := sessionFrom(req.Context()); sess != nil {
			h.sessions.destroy(sess.ID)
		}
		writeError(res, http.StatusUnauthorized, "auth", err.Error())
	case errors.Is(err, client.ErrNotAdmin):
		writeError(res, http.StatusForbidden, "auth", "admin role required")
	case errors.Is(err, view.ErrConfirmationMismatch):
		writeError(res, http.StatusBadRequest, "confirmation", err.Error())
	case errors.Is(err, client.ErrConflict):
		writeError(res, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, client.ErrValidation):
		writeError(res, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, client.ErrTransport):
		writeError(res, http.StatusGatewayTimeout, "transport", "backend unreachable, try again")
	case errors.Is(err, client.ErrServer):
		writeError(res, http.StatusBadGateway, "server", "backend error, try again")
	default:
		log.Errorf("unexpected error: %s", err)
		writeError(res, http.StatusInternalServerError, "internal", "internal error")
	}
}

// Login authenticates against the backend and opens a session.
// Non-admin accounts are rejected and no session is created.
func (h *handlers) Login(res http.ResponseWriter, req *http.Request) {
	var creds client.Credentials
	if err := json.NewDecoder(req.Body).Decode(&creds); err != nil {
		writeError(res, http.StatusBadRequest, "validation", "malformed login payload")
		return
	}
	err := validation.ValidateStruct(&creds,
		validation.Field(&creds.Email, validation.Required, is.Email),
		validation.Field(&creds.Password, validation.Required),
	)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}

	cl, err := client.New(client.Config{
		BaseURL: h.c.BackendURL,
		Timeout: h.c.RequestTimeout,
	})
	if err != nil {
		h.writeTaxonomyError(res, req, err)
		return
	}

	profile, err := cl.LoginAdmin(req.Context(), creds)
	if err != nil {
		h.writeTaxonomyError(res, req, err)
		return
	}

	ca, err := cache.New(cl, cache.Config{
		StaleAfter:      h.c.CacheStaleAfter,
		IdleExpiration:  h.c.CacheIdleExpiration,
		CleanupInterval: h.c.CacheCleanupInterval,
	})
	if err != nil {
		h.writeTaxonomyError(res, req, err)
		return
	}

	sess, token, err := h.sessions.create(profile, cl, ca)
	if err != nil {
		ca.Stop()
		h.writeTaxonomyError(res, req, err)
		return
	}

	http.SetCookie(res, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.CreatedAt.Add(h.sessions.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.c.TLS.CertFile != "",
	})
	writeJSON(res, http.StatusOK, profile)
}

// Logout destroys the session and clears its cache
func (h *handlers) Logout(res http.ResponseWriter, req *http.Request) {
	sess := sessionFrom(req.Context())
	h.sessions.destroy(sess.ID)
	http.SetCookie(res, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	res.WriteHeader(http.StatusNoContent)
}

// Profile returns the logged-in operator's profile
func (h *handlers) Profile(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, sessionFrom(req.Context()).Profile)
}

// listOptions describes how a list endpoint maps query parameters onto a
// view controller
type listOptions struct {
	resource    string
	filterNames []string
	dateRange   bool
}

// list renders one page of a resource collection through a typed view
// controller. match selects the record fields the q parameter refines on.
func list[T any](h *handlers, res http.ResponseWriter, req *http.Request, opts listOptions, match func(T) []string) {
	sess := sessionFrom(req.Context())
	q := req.URL.Query()

	v := view.NewListView[T](sess.Cache, opts.resource)
	defer v.Close()

	if match != nil {
		v.MatchFields(match)
	}
	for _, name := range opts.filterNames {
		if val := q.Get(name); val != "" && val != "all" {
			v.SetFilter(name, val)
		}
	}
	if opts.dateRange {
		v.SetDateRange(dateRangeFrom(q))
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			v.SetLimit(limit)
		}
	}
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			v.SetPage(page)
		}
	}
	// q applies to the fetched page only, not the full collection
	v.SetSearch(q.Get("q"))

	st := v.Load(req.Context())
	if st.Err != nil {
		h.writeTaxonomyError(res, req, st.Err)
		return
	}
	items := st.Items
	if items == nil {
		items = []T{}
	}
	writeJSON(res, http.StatusOK, listPayload[T]{Data: items, Meta: st.Meta, Stale: st.Stale})
}

// dateRangeFrom reads startDate/endDate (YYYY-MM-DD) query params,
// falling back to the current reporting year
func dateRangeFrom(q url.Values) resource.DateRange {
	rng := resource.CurrentYearRange(time.Now())
	if raw := q.Get("startDate"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			rng.Start = t
		}
	}
	if raw := q.Get("endDate"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			rng.End = t
		}
	}
	return rng
}

func (h *handlers) ListUsers(res http.ResponseWriter, req *http.Request) {
	list(h, res, req, listOptions{
		resource:    resource.Users,
		filterNames: []string{"role"},
	}, func(u resource.User) []string {
		return []string{u.Name, u.Email, u.ParishName}
	})
}

func (h *handlers) ListReports(res http.ResponseWriter, req *http.Request) {
	list[resource.Report](h, res, req, listOptions{
		resource:    resource.Reports,
		filterNames: []string{"status", "parishId"},
		dateRange:   true,
	}, nil)
}

func (h *handlers) ListPayments(res http.ResponseWriter, req *http.Request) {
	list[resource.Payment](h, res, req, listOptions{
		resource:    resource.Payments,
		filterNames: []string{"status", "payableType"},
		dateRange:   true,
	}, nil)
}

func (h *handlers) ListCollections(res http.ResponseWriter, req *http.Request) {
	list(h, res, req, listOptions{
		resource:    resource.Collections,
		filterNames: []string{"isActive"},
	}, func(c resource.Collection) []string {
		return []string{c.DisplayName(), c.Description}
	})
}

func (h *handlers) ListLevies(res http.ResponseWriter, req *http.Request) {
	list(h, res, req, listOptions{
		resource:    resource.Levies,
		filterNames: []string{"isActive"},
	}, func(c resource.Collection) []string {
		return []string{c.DisplayName(), c.Description}
	})
}

func (h *handlers) ListBankAccounts(res http.ResponseWriter, req *http.Request) {
	list(h, res, req, listOptions{
		resource: resource.BankAccounts,
	}, func(b resource.BankAccount) []string {
		return []string{b.BankName, b.AccountName, b.AccountNumber}
	})
}

// mutate runs a mutation through the session's runner and renders the
// result. Mutation errors are rendered inline for the initiating form;
// nothing is invalidated on failure.
func (h *handlers) mutate(res http.ResponseWriter, req *http.Request, m view.Mutation) {
	sess := sessionFrom(req.Context())
	body, err := sess.Runner.Run(req.Context(), m)
	if err != nil {
		h.writeTaxonomyError(res, req, err)
		return
	}
	if len(body) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(res, http.StatusOK, map[string]json.RawMessage{"data": body})
}

// rawPayload reads the request body as an opaque JSON payload to
// forward to the backend
func rawPayload(req *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, errors.New("request body is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func (h *handlers) UpdateUser(res http.ResponseWriter, req *http.Request) {
	payload, err := rawPayload(req)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Users,
			ID:       mux.Vars(req)["id"],
			Op:       client.OpReplace,
			Payload:  payload,
		},
	})
}

func (h *handlers) DeleteUser(res http.ResponseWriter, req *http.Request) {
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Users,
			ID:       mux.Vars(req)["id"],
			Op:       client.OpDelete,
		},
	})
}

// hardDeleteRequest carries the typed confirmation for a hard delete.
// The confirmation must match the target's email exactly.
type hardDeleteRequest struct {
	Email        string `json:"email"`
	Confirmation string `json:"confirmation"`
}

func (h *handlers) HardDeleteUser(res http.ResponseWriter, req *http.Request) {
	var body hardDeleteRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(res, http.StatusBadRequest, "validation", "malformed payload")
		return
	}
	err := validation.ValidateStruct(&body,
		validation.Field(&body.Email, validation.Required, is.Email),
	)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}

	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Users,
			Action:   "hard-delete",
			Op:       client.OpDelete,
			Payload:  map[string]string{"email": body.Email},
		},
		Confirm:         body.Confirmation,
		ConfirmExpected: body.Email,
	})
}

func (h *handlers) CreateWalletAccount(res http.ResponseWriter, req *http.Request) {
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Wallet,
			Action:   "dynamic-account",
			Op:       client.OpCreate,
			Query:    url.Values{"userId": {mux.Vars(req)["id"]}},
		},
		Invalidates: []string{resource.Users},
	})
}

func (h *handlers) LinkWallet(res http.ResponseWriter, req *http.Request) {
	payload, err := rawPayload(req)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Wallet,
			Action:   "admin/link-external",
			Op:       client.OpCreate,
			Payload:  payload,
		},
		Invalidates: []string{resource.Users},
	})
}

func (h *handlers) UpdateReport(res http.ResponseWriter, req *http.Request) {
	payload, err := rawPayload(req)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Reports,
			ID:       mux.Vars(req)["id"],
			Op:       client.OpReplace,
			Payload:  payload,
		},
	})
}

func (h *handlers) GetPayment(res http.ResponseWriter, req *http.Request) {
	sess := sessionFrom(req.Context())
	body, err := sess.Client.FetchOne(req.Context(), resource.Payments, mux.Vars(req)["id"])
	if err != nil {
		h.writeTaxonomyError(res, req, err)
		return
	}
	var payment resource.Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		h.writeTaxonomyError(res, req, errors.Wrap(err, "failed to decode payment"))
		return
	}
	writeJSON(res, http.StatusOK, map[string]resource.Payment{"data": payment})
}

func (h *handlers) ConfirmPayment(res http.ResponseWriter, req *http.Request) {
	payload, err := rawPayload(req)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.Payments,
			ID:       mux.Vars(req)["id"],
			Action:   "confirm",
			Op:       client.OpUpdate,
			Payload:  payload,
		},
	})
}

func (h *handlers) updateCollection(res http.ResponseWriter, req *http.Request, name string) {
	payload, err := rawPayload(req)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: name,
			ID:       mux.Vars(req)["id"],
			Op:       client.OpUpdate,
			Payload:  payload,
		},
	})
}

func (h *handlers) deleteCollection(res http.ResponseWriter, req *http.Request, name string) {
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: name,
			ID:       mux.Vars(req)["id"],
			Op:       client.OpDelete,
		},
	})
}

func (h *handlers) UpdateCollection(res http.ResponseWriter, req *http.Request) {
	h.updateCollection(res, req, resource.Collections)
}

func (h *handlers) DeleteCollection(res http.ResponseWriter, req *http.Request) {
	h.deleteCollection(res, req, resource.Collections)
}

func (h *handlers) UpdateLevy(res http.ResponseWriter, req *http.Request) {
	h.updateCollection(res, req, resource.Levies)
}

func (h *handlers) DeleteLevy(res http.ResponseWriter, req *http.Request) {
	h.deleteCollection(res, req, resource.Levies)
}

func (h *handlers) GetSettings(res http.ResponseWriter, req *http.Request) {
	sess := sessionFrom(req.Context())
	body, err := sess.Client.FetchOne(req.Context(), resource.AdminSettings, "")
	if err != nil {
		h.writeTaxonomyError(res, req, err)
		return
	}
	var settings resource.Settings
	if err := json.Unmarshal(body, &settings); err != nil {
		h.writeTaxonomyError(res, req, errors.Wrap(err, "failed to decode settings"))
		return
	}
	writeJSON(res, http.StatusOK, map[string]resource.Settings{"data": settings})
}

func (h *handlers) UpdateSettings(res http.ResponseWriter, req *http.Request) {
	payload, err := rawPayload(req)
	if err != nil {
		writeError(res, http.StatusBadRequest, "validation", err.Error())
		return
	}
	h.mutate(res, req, view.Mutation{
		MutationRequest: client.MutationRequest{
			Resource: resource.AdminSettings,
			Op:       client.OpUpdate,
			Payload:  payload,
		},
	})
}

// Wallets is a placeholder: the wallet management module has no
// backend surface yet
func (h *handlers) Wallets(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, map[string]string{
		"message": "Wallet management module is coming soon.",
	})
}

func (h *handlers) CacheStats(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, sessionFrom(req.Context()).Cache.Stats())
}
