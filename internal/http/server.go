// Package http exposes the JSON API. Handlers stay thin: parsing,
// validation mapping and response shaping; the services own the
// behavior.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"brisa/internal/cache"
	"brisa/internal/core"
	"brisa/internal/services"
)

// Ports the server drives. Declared here so tests can plug fakes.
type (
	Ledger interface {
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
		List(ctx context.Context) ([]core.Transaction, error)
		Delete(ctx context.Context, id string) error
	}

	Clients interface {
		Create(ctx context.Context, c core.Client) (core.Client, error)
		List(ctx context.Context) ([]core.Client, error)
		Update(ctx context.Context, id string, upd ClientPatch) (core.Client, error)
		Delete(ctx context.Context, id string) error
		MarkPaid(ctx context.Context, id string) error
	}

	Dashboards interface {
		Build(ctx context.Context, mode core.PeriodMode) (services.Dashboard, error)
		Goal(ctx context.Context) (core.Goal, error)
		SetGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	}

	Vault interface {
		Total(ctx context.Context) (float64, error)
		Apply(ctx context.Context, op core.VaultOp, amount float64) (float64, error)
	}

	Rates interface {
		Current() float64
	}

	Advisor interface {
		Advise(ctx context.Context, txs []core.Transaction) string
	}
)

type Server struct {
	http.Server

	ledger  Ledger
	clients Clients
	dash    Dashboards
	vault   Vault
	rates   Rates
	advisor Advisor

	rateLimiter *rateLimiter

	// Dashboard responses cached per period mode, dropped on every
	// write.
	dashCache    *cache.LRUCache[services.Dashboard]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, clients Clients, dash Dashboards, vault Vault, rates Rates, advisor Advisor) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ledger:       ledger,
		clients:      clients,
		dash:         dash,
		vault:        vault,
		rates:        rates,
		advisor:      advisor,
		rateLimiter:  newRateLimiter(),
		dashCache:    cache.NewLRUCache[services.Dashboard](4, time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/clients", s.withMiddleware(s.handleListClients))
	mux.HandleFunc("POST /api/clients", s.withMiddleware(s.handleCreateClient))
	mux.HandleFunc("PATCH /api/clients/{id}", s.withMiddleware(s.handleUpdateClient))
	mux.HandleFunc("DELETE /api/clients/{id}", s.withMiddleware(s.handleDeleteClient))
	mux.HandleFunc("POST /api/clients/{id}/payments", s.withMiddleware(s.handleMarkClientPaid))

	mux.HandleFunc("GET /api/goal", s.withMiddleware(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goal", s.withMiddleware(s.handleSetGoal))

	mux.HandleFunc("GET /api/vault", s.withMiddleware(s.handleGetVault))
	mux.HandleFunc("POST /api/vault", s.withMiddleware(s.handleVaultOp))

	mux.HandleFunc("GET /api/rate", s.withMiddleware(s.handleRate))
	mux.HandleFunc("GET /api/advice", s.withMiddleware(s.handleAdvice))

	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) invalidateDashboard() {
	s.dashCache.Delete(string(core.PeriodMonth))
	s.dashCache.Delete(string(core.PeriodYear))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
