package main

import (
	"fmt"
	"log"
	"net/http"

	"mortgage-advisor-backend/internal/config"
	"mortgage-advisor-backend/internal/server"
)

func main() {
	cfg := config.Load()
	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	addr := ":" + cfg.Port
	fmt.Printf("mortgage advisor listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
