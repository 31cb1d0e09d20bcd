package main

import (
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/chrisvdg/dioadmin/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	c, err := server.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	listAddr := pflag.StringP("listenaddr", "l", c.ListenAddr, "http listen address")
	tlsListAddr := pflag.StringP("tlsaddr", "t", c.TLSListenAddr, "https listen address")
	tlsKey := pflag.StringP("tlskey", "k", c.TLS.KeyFile, "TLS private key file path")
	tlsCert := pflag.StringP("tlscert", "c", c.TLS.CertFile, "TLS certificate file path")
	tlsOnly := pflag.BoolP("tlsonly", "s", c.TLSOnly, "Only serve TLS")
	backend := pflag.StringP("backend", "b", c.BackendURL, "backend API base URL")
	verbose := pflag.BoolP("verbose", "v", c.Verbose, "Verbose output")
	pflag.Parse()

	c.ListenAddr = *listAddr
	c.TLSListenAddr = *tlsListAddr
	c.TLS.KeyFile = *tlsKey
	c.TLS.CertFile = *tlsCert
	c.TLSOnly = *tlsOnly
	c.BackendURL = *backend
	c.Verbose = *verbose

	s, err := server.New(c)
	if err != nil {
		log.Fatal(err)
	}

	s.ListenAndServe()
}
