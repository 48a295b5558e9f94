// Package api serves the monitoring platform's HTTP API: read access to
// clients, checks, events, aggregates and stashes held in the state store,
// and check requests and event resolutions published onto the transport.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"sensuapi/config"
	"sensuapi/internal/store"
	"sensuapi/internal/transport"
)

// DefaultClientDeleteDelay is how long a client deletion waits for the
// resolutions it published to be processed before removing the client's keys.
const DefaultClientDeleteDelay = 5 * time.Second

// Options configures a Server.
type Options struct {
	Store     store.Store
	Transport transport.Transport
	Checks    config.Checks
	Version   string

	ClientDeleteDelay time.Duration

	// User and Password enable HTTP Basic Auth when both are set.
	User     string
	Password string

	// Metrics defaults to collectors registered on a private registry.
	Metrics *Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP API. Work that outlives a request (publishes and the
// delayed client cascade) runs in the background and is awaited by Wait.
type Server struct {
	store       store.Store
	transport   transport.Transport
	checks      config.Checks
	version     string
	deleteDelay time.Duration
	user        string
	password    string
	metrics     *Metrics
	now         func() time.Time

	handler http.Handler

	bg       sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// New builds the server and its route table.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("api: transport is required")
	}

	s := &Server{
		store:       opts.Store,
		transport:   opts.Transport,
		checks:      opts.Checks,
		version:     opts.Version,
		deleteDelay: opts.ClientDeleteDelay,
		user:        opts.User,
		password:    opts.Password,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if s.checks == nil {
		s.checks = config.Checks{}
	}
	if s.deleteDelay <= 0 {
		s.deleteDelay = DefaultClientDeleteDelay
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics == nil {
		m, err := NewMetrics(prometheus.NewRegistry())
		if err != nil {
			return nil, err
		}
		s.metrics = m
	}
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Wait blocks until background work has finished. When ctx ends first the
// remaining work is cancelled and ctx's error is returned.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.bgCancel()
		<-done
		return ctx.Err()
	}
}

// background runs fn outside the request. fn receives a context that is only
// cancelled when Wait gives up.
func (s *Server) background(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(s.bgCtx)
	}()
}

func capture(name string) string {
	return "{" + name + `:[\w.-]+}`
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument, recoverer, middleware.StripSlashes)
	if s.user != "" && s.password != "" {
		r.Use(middleware.BasicAuth("Sensu API", map[string]string{s.user: s.password}))
	}
	r.Use(accessLog, jsonContentType)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { notFound(w) })

	client, check := capture("client"), capture("check")

	r.Get("/info", s.getInfo)
	r.Get("/health", s.getHealth)

	r.Get("/clients", s.listClients)
	r.Get("/clients/"+client+"/history", s.getClientHistory)
	for _, prefix := range []string{"/clients/", "/client/"} {
		r.Get(prefix+client, s.getClient)
		r.Delete(prefix+client, s.deleteClient)
	}

	r.Get("/checks", s.listChecks)
	for _, prefix := range []string{"/checks/", "/check/"} {
		r.Get(prefix+check, s.getCheck)
	}
	r.Post("/request", s.requestCheck)

	r.Get("/events", s.listEvents)
	r.Get("/events/"+client, s.listClientEvents)
	for _, prefix := range []string{"/events/", "/event/"} {
		r.Get(prefix+client+"/"+check, s.getEvent)
		r.Delete(prefix+client+"/"+check, s.deleteEvent)
	}
	r.Post("/resolve", s.resolve)

	r.Get("/aggregates", s.listAggregates)
	r.Get("/aggregates/"+check, s.getAggregate)
	r.Delete("/aggregates/"+check, s.deleteAggregate)
	for _, prefix := range []string{"/aggregates/", "/aggregate/"} {
		r.Get(prefix+check+"/"+capture("issued"), s.getAggregateRun)
	}

	r.Get("/stashes", s.listStashes)
	r.Post("/stashes", s.createStash)
	for _, prefix := range []string{"/stashes/", "/stash/"} {
		r.Post(prefix+"*", s.postStash)
		r.Get(prefix+"*", s.getStash)
		r.Delete(prefix+"*", s.deleteStash)
	}

	return r
}
