// Package main implements the userdir replica daemon, a node that mirrors
// the master's directory via the replication channel and never originates
// writes of its own.
//
// The replica exposes:
//   - /replicate - inbound notification batches from the master (POST)
//   - /users     - read-only record listing (GET); mutations are rejected
//   - /health    - health check
//   - /metrics   - Prometheus metrics
//
// On startup the replica announces itself to the master, which then
// pushes every committed mutation to /replicate. Direct mutation attempts
// through /users are refused: the replication channel is the only
// sanctioned write path.
//
// Configuration:
//   - REPLICA_CONFIG: Path to a YAML config file (optional)
//   - REPLICA_ID: Unique replica identifier (default: "replica-1")
//   - REPLICA_LISTEN: Listen address (default: ":8081")
//   - REPLICA_ADDR: Public address for master registration (default: "http://127.0.0.1:8081")
//   - MASTER_ADDR: Master URL (required for registration)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dreamware/userdir/internal/cluster"
	"github.com/dreamware/userdir/internal/config"
	"github.com/dreamware/userdir/internal/directory"
	"github.com/dreamware/userdir/internal/metrics"
	"github.com/dreamware/userdir/internal/notify"
	"github.com/dreamware/userdir/internal/replication"
)

func main() {
	cfg, err := config.Load(getenv("REPLICA_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	nodeID := getenv("REPLICA_ID", "replica-1")
	listen := getenv("REPLICA_LISTEN", ":8081")
	publicAddr := getenv("REPLICA_ADDR", "http://127.0.0.1:8081")
	masterAddr := getenv("MASTER_ADDR", cfg.Replication.MasterAddr)

	logger := newLogger(cfg.Logging)
	defer logger.Sync()

	srv := newServer(nodeID, logger, metrics.New())

	mux := http.NewServeMux()
	mux.HandleFunc("/replicate", srv.handleReplicate)
	mux.HandleFunc("/users", srv.handleUsers)
	mux.HandleFunc("/users/", srv.handleUserByID)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		logger.Info("replica listening",
			zap.String("replica", nodeID),
			zap.String("addr", listen))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	if masterAddr != "" {
		go func() {
			if !register(masterAddr, cluster.ReplicaInfo{ID: nodeID, Addr: publicAddr}, cfg.Replication, logger) {
				return
			}
			if err := srv.syncFromMaster(masterAddr, cfg.Replication.PushTimeout); err != nil {
				logger.Warn("initial sync incomplete", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("MASTER_ADDR not set, replica will not receive mutations")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	logger.Info("replica stopped")
}

// register announces this replica to the master, retrying on failure so
// the replica survives a master that comes up later.
// Reports whether registration eventually succeeded.
func register(masterAddr string, info cluster.ReplicaInfo, cfg config.ReplicationConfig, logger *zap.Logger) bool {
	req := cluster.RegisterRequest{Replica: info}
	for attempt := 1; attempt <= cfg.RegisterRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.PushTimeout)
		err := cluster.PostJSON(ctx, masterAddr+"/register", req, nil)
		cancel()
		if err == nil {
			logger.Info("registered with master", zap.String("master", masterAddr))
			return true
		}
		logger.Warn("registration failed",
			zap.String("master", masterAddr),
			zap.Int("attempt", attempt),
			zap.Error(err))
		time.Sleep(cfg.RegisterRetryInterval)
	}
	logger.Error("giving up on master registration", zap.String("master", masterAddr))
	return false
}

type server struct {
	replica *replication.Replica
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func newServer(nodeID string, logger *zap.Logger, m *metrics.Metrics) *server {
	return &server{
		replica: replication.NewReplica(nodeID, directory.NewMemoryStore(), logger),
		metrics: m,
		logger:  logger,
	}
}

// syncFromMaster fetches the master's full record set and replays it
// through the replication channel, catching a freshly registered replica
// up to mutations it missed. Records pushed concurrently with the fetch
// may arrive twice; the replay stops at the duplicate and the error is
// reported to the caller.
func (s *server) syncFromMaster(masterAddr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var listing struct {
		Users []directory.User `json:"users"`
	}
	if err := cluster.GetJSON(ctx, masterAddr+"/users", &listing); err != nil {
		return fmt.Errorf("fetch master state: %w", err)
	}
	if len(listing.Users) == 0 {
		return nil
	}

	batch := make(notify.Batch, 0, len(listing.Users))
	for _, u := range listing.Users {
		batch = append(batch, notify.NewAddEntry(u))
	}
	data, err := notify.Codec{}.Encode(batch)
	if err != nil {
		return err
	}
	if err := s.replica.Receiver().Receive(data); err != nil {
		return err
	}

	s.metrics.Users.Set(float64(s.replica.Len()))
	s.logger.Info("initial sync complete", zap.Int("users", s.replica.Len()))
	return nil
}

// handleReplicate feeds an inbound encoded batch to the replica's
// notification receiver. Malformed payloads are dropped with a 400;
// nothing from a dropped message is applied.
func (s *server) handleReplicate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := s.replica.Receiver().Receive(body); err != nil {
		if errors.Is(err, notify.ErrDecode) {
			s.metrics.DecodeErrors.Inc()
			s.logger.Warn("dropping malformed notification", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("notification replay failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.metrics.NotificationsReceived.Inc()
	s.metrics.Users.Set(float64(s.replica.Len()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Users []directory.User `json:"users"`
		}{Users: s.replica.All()})
	case http.MethodPost:
		// Surface the guard: direct mutations are never accepted here
		err := s.replica.Add(directory.User{})
		http.Error(w, err.Error(), http.StatusMethodNotAllowed)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Path[len("/users/"):], 10, 64)
	if err != nil {
		http.Error(w, "bad user id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := s.replica.FindFirst(directory.ByID(id))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(u)
	case http.MethodDelete:
		err := s.replica.Remove(id)
		http.Error(w, err.Error(), http.StatusMethodNotAllowed)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func newLogger(cfg config.LoggingConfig) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zapCfg.Level = level
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
