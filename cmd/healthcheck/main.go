// Package main is the container health probe. It exits 0 when the local
// server answers /livez with 200.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
)

func main() {
	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = "10000"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/livez", port))
	if err != nil {
		os.Exit(1)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
