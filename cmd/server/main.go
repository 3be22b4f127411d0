// Command server is the process entrypoint: it loads configuration,
// dials Redis, wires the transport hub to the EventRouter, and serves
// the crossword and trivia websocket namespaces plus a couple of
// ambient HTTP endpoints. Grounded in the teacher's main.go (CORS
// middleware, mux routing, emoji-tagged startup banner, SIGTERM
// shutdown goroutine that logs and exits without draining connections).
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/blarphus/crossword/internal/config"
	"github.com/blarphus/crossword/internal/router"
	"github.com/blarphus/crossword/internal/store"
	"github.com/blarphus/crossword/internal/transport"
)

func main() {
	config.Load()

	st, err := store.NewRedisStore(config.AppConfig.RedisURL, config.AppConfig.RedisPassword, config.AppConfig.RedisDB)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	hub := transport.NewHub()
	rt := router.New(st, hub)

	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/ws/crossword", func(w http.ResponseWriter, req *http.Request) {
		log.Printf("crossword websocket connection attempt from %s", req.RemoteAddr)
		transport.Serve(hub, rt, w, req, map[string]string{"kind": "crossword"})
	})

	r.HandleFunc("/ws/jeopardy", func(w http.ResponseWriter, req *http.Request) {
		log.Printf("jeopardy websocket connection attempt from %s", req.RemoteAddr)
		transport.Serve(hub, rt, w, req, map[string]string{"kind": "jeopardy"})
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"crossword_rooms": ` + strconv.Itoa(rt.CrosswordRoomCount()) + `, "jeopardy_rooms": ` + strconv.Itoa(rt.JeopardyRoomCount()) + `}`))
	})

	port := config.AppConfig.Port

	log.Println("╔═══════════════════════════════════════════════╗")
	log.Println("║      🧩 CROSSWORD + TRIVIA SERVER STARTED     ║")
	log.Println("╚═══════════════════════════════════════════════╝")
	log.Printf("  Crossword WebSocket: ws://localhost:%s/ws/crossword", port)
	log.Printf("  Jeopardy WebSocket:  ws://localhost:%s/ws/jeopardy", port)
	log.Printf("  Health Check:        http://localhost:%s/health", port)
	log.Println("═══════════════════════════════════════════════")

	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("shutting down gracefully...")
		os.Exit(0)
	}()

	log.Fatal(srv.ListenAndServe())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, Sec-WebSocket-Extensions")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
