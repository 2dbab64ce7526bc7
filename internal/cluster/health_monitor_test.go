// Package cluster provides the replication cluster plumbing.
// This file contains tests for the replica health monitoring functionality.
package cluster

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestNewHealthMonitor verifies that NewHealthMonitor creates a properly
// configured instance with sane defaults.
func TestNewHealthMonitor(t *testing.T) {
	monitor := NewHealthMonitor(5*time.Second, zap.NewNop())
	defer monitor.Stop()

	assert.NotNil(t, monitor)
	assert.Equal(t, 5*time.Second, monitor.interval)
	assert.Equal(t, 2*time.Second, monitor.timeout)
	assert.Equal(t, 3, monitor.maxFailures)
	assert.NotNil(t, monitor.replicas)
	assert.NotNil(t, monitor.httpClient)
	assert.Len(t, monitor.replicas, 0)
}

// TestHealthMonitorChecks verifies the monitor polls every replica the
// provider reports.
func TestHealthMonitorChecks(t *testing.T) {
	monitor := NewHealthMonitor(50*time.Millisecond, zap.NewNop())
	defer monitor.Stop()

	var mu sync.Mutex
	checked := map[string]int{}
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		checked[addr]++
		mu.Unlock()
		return nil
	})

	provider := func() []ReplicaInfo {
		return []ReplicaInfo{
			{ID: "replica-1", Addr: "http://localhost:8081"},
			{ID: "replica-2", Addr: "http://localhost:8082"},
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, provider)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return checked["http://localhost:8081"] > 0 && checked["http://localhost:8082"] > 0
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return monitor.IsHealthy("replica-1") && monitor.IsHealthy("replica-2")
	}, time.Second, 10*time.Millisecond)
}

// TestHealthMonitorUnhealthyCallback verifies a replica is reported after
// maxFailures consecutive check failures, exactly once per state change.
func TestHealthMonitorUnhealthyCallback(t *testing.T) {
	monitor := NewHealthMonitor(20*time.Millisecond, zap.NewNop())
	defer monitor.Stop()

	monitor.SetCheckFunction(func(addr string) error {
		return fmt.Errorf("connection refused")
	})

	var mu sync.Mutex
	var reported []string
	monitor.SetOnUnhealthy(func(id string) {
		mu.Lock()
		reported = append(reported, id)
		mu.Unlock()
	})

	provider := func() []ReplicaInfo {
		return []ReplicaInfo{{ID: "replica-1", Addr: "http://localhost:9999"}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, provider)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) > 0
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"replica-1"}, reported)
	mu.Unlock()

	health := monitor.GetReplicaHealth("replica-1")
	require.NotNil(t, health)
	assert.Equal(t, "unhealthy", health.Status)
	assert.GreaterOrEqual(t, health.ConsecutiveFails, 3)
	assert.False(t, monitor.IsHealthy("replica-1"))
}

// TestHealthMonitorRecovery verifies a failed replica returns to healthy
// after a successful check.
func TestHealthMonitorRecovery(t *testing.T) {
	monitor := NewHealthMonitor(20*time.Millisecond, zap.NewNop())
	defer monitor.Stop()

	var mu sync.Mutex
	failing := true
	monitor.SetCheckFunction(func(addr string) error {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return fmt.Errorf("connection refused")
		}
		return nil
	})

	provider := func() []ReplicaInfo {
		return []ReplicaInfo{{ID: "replica-1", Addr: "http://localhost:9999"}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, provider)

	require.Eventually(t, func() bool {
		h := monitor.GetReplicaHealth("replica-1")
		return h != nil && h.Status == "unhealthy"
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	failing = false
	mu.Unlock()

	require.Eventually(t, func() bool {
		return monitor.IsHealthy("replica-1")
	}, time.Second, 10*time.Millisecond)
}

// TestHealthMonitorForgetsDeregistered verifies tracking state is dropped
// for replicas the provider no longer reports.
func TestHealthMonitorForgetsDeregistered(t *testing.T) {
	monitor := NewHealthMonitor(20*time.Millisecond, zap.NewNop())
	defer monitor.Stop()

	monitor.SetCheckFunction(func(addr string) error { return nil })

	var mu sync.Mutex
	replicas := []ReplicaInfo{{ID: "replica-1", Addr: "http://localhost:8081"}}
	provider := func() []ReplicaInfo {
		mu.Lock()
		defer mu.Unlock()
		return replicas
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx, provider)

	require.Eventually(t, func() bool {
		return monitor.GetReplicaHealth("replica-1") != nil
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	replicas = nil
	mu.Unlock()

	require.Eventually(t, func() bool {
		return monitor.GetReplicaHealth("replica-1") == nil
	}, time.Second, 10*time.Millisecond)
}
