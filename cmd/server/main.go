package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"policy-advisor/pkg/analyzer"
	"policy-advisor/pkg/api"
	"policy-advisor/pkg/db"
	"policy-advisor/pkg/discovery"
	"policy-advisor/pkg/journal"
	"policy-advisor/pkg/store"
	"policy-advisor/pkg/version"
)

func main() {
	addr := flag.String("addr", ":3000", "listen address")
	analyzerCmd := flag.String("analyzer", "", "analyzer command (overrides ANALYZER_CMD)")
	token := flag.String("token", "", "bootstrap auth token (optional; JWT always accepted)")
	journalPath := flag.String("journal", "data/journal.db", "path to the local operation journal")
	consulAddr := flag.String("consul-addr", "", "register with the Consul agent at this address (requires build tag consul)")
	advertise := flag.String("advertise", "", "address advertised to Consul (host only)")
	flag.Parse()

	gdb, err := db.Init()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	flows := store.NewFlowStore(gdb)
	policies := store.NewPolicyStore(gdb)

	command := *analyzerCmd
	if command == "" {
		command = os.Getenv("ANALYZER_CMD")
	}
	if command == "" {
		command = "python3 analyzer/analyze.py"
	}
	runner := analyzer.NewRunner(strings.Fields(command))
	gen := &analyzer.Generator{Flows: flows, Policies: policies, Engine: runner}

	jrnl, err := journal.Open(*journalPath)
	if err != nil {
		log.Printf("operation journal disabled: %v", err)
		jrnl = nil
	}

	hub := api.NewEventHub()
	auth := api.AuthFunc(*token)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","message":"Cilium Policy Advisor API is running"}`))
	})
	api.RegisterFlowRoutes(mux, flows, auth, hub)
	api.RegisterPolicyRoutes(mux, policies, gen, auth, hub, jrnl)
	api.RegisterVersionRoutes(mux, policies, auth)
	api.RegisterDashboardRoutes(mux, gdb, auth)
	(&api.AuthHandler{DB: gdb}).RegisterRoutes(mux)
	api.RegisterEventRoutes(mux, hub, auth)

	serviceID := ""
	if *consulAddr != "" {
		host, port := advertiseHostPort(*advertise, *addr)
		serviceID = "policy-advisor-" + host
		if err := discovery.Register(*consulAddr, serviceID, host, port); err != nil {
			log.Printf("consul registration failed: %v", err)
			serviceID = ""
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("policy advisor %s listening on %s (analyzer: %s)", version.Build, *addr, command)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")

	if serviceID != "" {
		if err := discovery.Deregister(*consulAddr, serviceID); err != nil {
			log.Printf("consul deregistration failed: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := jrnl.Close(); err != nil {
		log.Printf("journal close: %v", err)
	}
}

func advertiseHostPort(advertise, addr string) (string, int) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		portStr = "3000"
	}
	port, _ := strconv.Atoi(portStr)
	host := advertise
	if host == "" {
		host = "127.0.0.1"
	}
	return host, port
}
