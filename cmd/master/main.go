// Package main implements the userdir master daemon, the single node where
// directory writes originate.
//
// The master hosts the replication coordinator and exposes:
//   - /users         - add (POST) and list (GET) user records
//   - /users/{id}    - remove a record (DELETE)
//   - /users/search  - search records by age
//   - /register      - replica node registration
//   - /replicas      - list registered replicas
//   - /health        - health check
//   - /metrics       - Prometheus metrics
//
// Every committed mutation is encoded as a notification batch and pushed
// to each registered replica's /replicate endpoint. Replicas that fail
// their health checks are deregistered and stop receiving pushes.
//
// Configuration:
//   - MASTER_CONFIG: Path to a YAML config file (optional)
//   - MASTER_ADDR: Listen address (default: ":8080")
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/userdir/internal/cluster"
	"github.com/dreamware/userdir/internal/config"
	"github.com/dreamware/userdir/internal/directory"
	"github.com/dreamware/userdir/internal/metrics"
	"github.com/dreamware/userdir/internal/notify"
	"github.com/dreamware/userdir/internal/replication"
)

func main() {
	cfg, err := config.Load(getenv("MASTER_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	addr := getenv("MASTER_ADDR", cfg.Server.Listen)

	logger := newLogger(cfg.Logging)
	defer logger.Sync()

	srv := newServer(cfg, logger, metrics.New())

	monitor := cluster.NewHealthMonitor(cfg.Replication.HealthInterval, logger)
	monitor.SetOnUnhealthy(srv.dropReplica)
	go monitor.Start(context.Background(), srv.replicaNodes)
	defer monitor.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/register", srv.handleRegister)
	mux.HandleFunc("/replicas", srv.handleReplicas)
	mux.HandleFunc("/users", srv.handleUsers)
	mux.HandleFunc("/users/", srv.handleUserByID)
	mux.HandleFunc("/users/search", srv.handleSearch)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		logger.Info("master listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	logger.Info("master stopped")
}

type server struct {
	mu       sync.RWMutex
	replicas []cluster.ReplicaInfo
	coord    *replication.Coordinator
	codec    notify.Codec
	cfg      config.Config
	logger   *zap.Logger
}

func newServer(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) *server {
	s := &server{
		cfg:    cfg,
		logger: logger,
	}
	// The server itself is the coordinator's outbound sender: it pushes
	// each encoded batch to every registered replica node.
	s.coord = replication.NewCoordinator(
		directory.NewMemoryStore(),
		directory.NewDefaultValidator(),
		s,
		logger,
		m,
	)
	return s
}

// Send implements replication.BatchSender by pushing the encoded batch to
// every registered replica's /replicate endpoint. Push failures are
// collected, not fatal; a lagging replica catches up on re-registration.
func (s *server) Send(b notify.Batch) error {
	data, err := s.codec.Encode(b)
	if err != nil {
		return err
	}

	targets := s.replicaNodes()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Replication.PushTimeout)
	defer cancel()

	var pushErr error
	for _, node := range targets {
		if err := cluster.PostBytes(ctx, node.Addr+"/replicate", data); err != nil {
			pushErr = multierr.Append(pushErr, fmt.Errorf("replica %s: %w", node.ID, err))
			s.logger.Warn("notification push failed",
				zap.String("replica", node.ID),
				zap.Error(err))
		}
	}
	return pushErr
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Replica.ID == "" || req.Replica.Addr == "" {
		http.Error(w, "missing id/addr", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.replicas, func(n cluster.ReplicaInfo) bool { return n.ID == req.Replica.ID })
	if idx >= 0 {
		s.replicas[idx] = req.Replica
	} else {
		s.replicas = append(s.replicas, req.Replica)
	}
	s.logger.Info("replica registered",
		zap.String("replica", req.Replica.ID),
		zap.String("addr", req.Replica.Addr))
	w.WriteHeader(http.StatusNoContent)
}

// handleReplicas lists the currently registered replica nodes
func (s *server) handleReplicas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, struct {
		Replicas []cluster.ReplicaInfo `json:"replicas"`
	}{Replicas: s.replicaNodes()})
}

func (s *server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddUser(w, r)
	case http.MethodGet:
		writeJSON(w, struct {
			Users []directory.User `json:"users"`
		}{Users: s.coord.All()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var u directory.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	committed, err := s.coord.Add(u)
	if errors.Is(err, directory.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		// Fan-out errors: the record is committed locally, the cluster
		// converges later. Report and continue.
		s.logger.Warn("add fan-out incomplete", zap.Int64("user_id", committed.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(committed)
}

func (s *server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Path[len("/users/"):], 10, 64)
	if err != nil {
		http.Error(w, "bad user id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		err := s.coord.Remove(id)
		if errors.Is(err, directory.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			s.logger.Warn("remove fan-out incomplete", zap.Int64("user_id", id), zap.Error(err))
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		u, err := s.coord.FindFirst(directory.ByID(id))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, u)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var users []directory.User
	var err error

	switch {
	case r.URL.Query().Has("age"):
		var age int
		age, err = strconv.Atoi(r.URL.Query().Get("age"))
		if err != nil {
			http.Error(w, "bad age query parameter", http.StatusBadRequest)
			return
		}
		users, err = s.coord.SearchByAge(age)
	case r.URL.Query().Has("last_name"):
		users, err = s.coord.SearchByLastName(r.URL.Query().Get("last_name"))
	default:
		http.Error(w, "age or last_name query parameter required", http.StatusBadRequest)
		return
	}

	if errors.Is(err, directory.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, struct {
		Users []directory.User `json:"users"`
	}{Users: users})
}

// replicaNodes returns a snapshot of the registered replica nodes
func (s *server) replicaNodes() []cluster.ReplicaInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]cluster.ReplicaInfo(nil), s.replicas...)
}

// dropReplica deregisters a replica that failed its health checks
func (s *server) dropReplica(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.replicas, func(n cluster.ReplicaInfo) bool { return n.ID == id })
	if idx >= 0 {
		s.replicas = append(s.replicas[:idx], s.replicas[idx+1:]...)
		s.logger.Warn("replica deregistered", zap.String("replica", id))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
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
