package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// New creates a new server instance
func New(c *Config) (*Server, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	return &Server{
		c:        c,
		sessions: newSessionStore(c.SessionSecret, c.SessionTTL),
	}, nil
}

// Server represents a server instance
type Server struct {
	c        *Config
	sessions *sessionStore
}

// Router builds the dashboard API router
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	h := newHandlers(s.c, s.sessions)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.requestID, h.accessLog)
	api.HandleFunc("/login", h.Login).Methods("POST")

	priv := api.NewRoute().Subrouter()
	priv.Use(h.withSession)
	priv.HandleFunc("/logout", h.Logout).Methods("POST")
	priv.HandleFunc("/profile", h.Profile).Methods("GET")

	priv.HandleFunc("/users", h.ListUsers).Methods("GET")
	priv.HandleFunc("/users/hard-delete", h.HardDeleteUser).Methods("DELETE")
	priv.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	priv.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
	priv.HandleFunc("/users/{id}/wallet-account", h.CreateWalletAccount).Methods("POST")
	priv.HandleFunc("/users/{id}/link-wallet", h.LinkWallet).Methods("POST")

	priv.HandleFunc("/reports", h.ListReports).Methods("GET")
	priv.HandleFunc("/reports/{id}", h.UpdateReport).Methods("PUT")

	priv.HandleFunc("/payments", h.ListPayments).Methods("GET")
	priv.HandleFunc("/payments/{id}", h.GetPayment).Methods("GET")
	priv.HandleFunc("/payments/{id}/confirm", h.ConfirmPayment).Methods("PATCH")

	priv.HandleFunc("/collections", h.ListCollections).Methods("GET")
	priv.HandleFunc("/collections/{id}", h.UpdateCollection).Methods("PATCH")
	priv.HandleFunc("/collections/{id}", h.DeleteCollection).Methods("DELETE")
	priv.HandleFunc("/levies", h.ListLevies).Methods("GET")
	priv.HandleFunc("/levies/{id}", h.UpdateLevy).Methods("PATCH")
	priv.HandleFunc("/levies/{id}", h.DeleteLevy).Methods("DELETE")

	priv.HandleFunc("/bank-accounts", h.ListBankAccounts).Methods("GET")
	priv.HandleFunc("/admin-settings", h.GetSettings).Methods("GET")
	priv.HandleFunc("/admin-settings", h.UpdateSettings).Methods("PATCH")

	priv.HandleFunc("/wallets", h.Wallets).Methods("GET")
	priv.HandleFunc("/cache/stats", h.CacheStats).Methods("GET")

	return r
}

// ListenAndServe listens for new requests and serves them
func (s *Server) ListenAndServe() {
	r := s.Router()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tlsEnabled := s.c.TLS.CertFile != "" && s.c.TLS.KeyFile != ""
	if !s.c.TLSOnly {
		go listenAndServe(ctx, cancel, s.c.ListenAddr, r)
	}

	if tlsEnabled {
		go listenAndServeTLS(ctx, cancel, s.c.TLSListenAddr, s.c.TLS, r)
	}

	<-ctx.Done()
}

// listenAndServe serves a plain http webserver
func listenAndServe(ctx context.Context, cancel func(), addr string, handler http.Handler) {
	defer cancel()
	addrStr := getAddrString(addr)
	log.Infof("http server listening on: http://%s\n", addrStr)
	log.Error(http.ListenAndServe(addr, handler))
}

// listenAndServeTLS serves a tls webserver
func listenAndServeTLS(ctx context.Context, cancel func(), addr string, tls TLSConfig, handler http.Handler) {
	defer cancel()
	addrStr := getAddrString(addr)
	log.Infof("https server listening on: https://%s\n", addrStr)
	log.Error(http.ListenAndServeTLS(addr, tls.CertFile, tls.KeyFile, handler))
}

func getAddrString(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = fmt.Sprintf("0.0.0.0%s", addr)
	}
	return addr
}
