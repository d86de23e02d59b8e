// Package node implements the master and worker processes the supervisor
// spawns as detached daemons. Both are re-executions of the mmt binary
// through hidden subcommands.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/naelmusleh/modernmt/pkg/engine"
)

// Master owns the canonical model state of an engine. It serves the public
// REST API on the api port and a control channel for worker synchronization
// on the first cluster port.
type Master struct {
	engine       *engine.Engine
	apiPort      int
	clusterPorts [2]int
	decoder      Decoder
	startedAt    time.Time

	mu      sync.Mutex
	workers map[string]time.Time
}

// NewMaster creates a master node for an already built engine.
func NewMaster(e *engine.Engine, apiPort int, clusterPorts [2]int) *Master {
	return &Master{
		engine:       e,
		apiPort:      apiPort,
		clusterPorts: clusterPorts,
		decoder:      NewPassthroughDecoder(),
		workers:      make(map[string]time.Time),
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (master *Master) Run(ctx context.Context) error {
	if err := master.engine.Ensure(); err != nil {
		return err
	}

	control, err := net.Listen("tcp", fmt.Sprintf(":%d", master.clusterPorts[0]))
	if err != nil {
		return fmt.Errorf("cannot bind control channel: %w", err)
	}
	defer control.Close()

	master.startedAt = time.Now()
	go master.acceptWorkers(control)

	api := &http.Server{
		Addr:    fmt.Sprintf(":%d", master.apiPort),
		Handler: master.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("cannot serve API: %w", err)
		}
	}()

	log.Printf("master node for engine '%s' listening, api on :%d, control on :%d",
		master.engine.Name, master.apiPort, master.clusterPorts[0])

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Received KILL signal, stopping server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server terminated successfully")
	return nil
}

// controlMessage is one JSON line on the control channel.
type controlMessage struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Engine string `json:"engine"`
}

func (master *Master) acceptWorkers(control net.Listener) {
	for {
		conn, err := control.Accept()
		if err != nil {
			return
		}
		go master.handleWorker(conn)
	}
}

func (master *Master) handleWorker(conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	for {
		var msg controlMessage
		if err := decoder.Decode(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "register":
			log.Printf("worker '%s' registered for engine '%s'", msg.Name, msg.Engine)
			fallthrough
		case "heartbeat":
			master.mu.Lock()
			master.workers[msg.Name] = time.Now()
			master.mu.Unlock()
		}
	}
}

func (master *Master) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/translate", master.handleTranslate)
	mux.HandleFunc("/_status", master.handleStatus)
	return mux
}

func (master *Master) handleTranslate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	text := query.Get("q")
	if text == "" {
		http.Error(w, "missing 'q' parameter", http.StatusBadRequest)
		return
	}

	translation, err := master.decoder.Translate(text, query.Get("source"), query.Get("target"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"translation": translation})
}

func (master *Master) handleStatus(w http.ResponseWriter, r *http.Request) {
	master.mu.Lock()
	workers := len(master.workers)
	master.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"engine":  master.engine.Name,
		"uptime":  time.Since(master.startedAt).String(),
		"workers": workers,
	})
}
