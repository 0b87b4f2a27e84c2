package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// api_check pokes a running paper trader over HTTP and reports which
// endpoints respond. Point it at a live instance before trusting a deploy.
//
// Usage:
//   go run ./scripts/api_check
//
// Environment variables:
//   API_CHECK_BASE_URL   (default "http://localhost:8080")
//   API_CHECK_USER       operator username, required for protected routes
//   API_CHECK_PASSWORD   operator password
//
// Without credentials only the public endpoints are exercised.

func main() {
	log.Println("=== API check starting ===")

	baseURL := getenv("API_CHECK_BASE_URL", "http://localhost:8080")
	user := os.Getenv("API_CHECK_USER")
	password := os.Getenv("API_CHECK_PASSWORD")

	client := &http.Client{Timeout: 10 * time.Second}

	checkGet(client, baseURL+"/health", "")
	checkGet(client, baseURL+"/api/system/status", "")

	if user == "" || password == "" {
		log.Println("API_CHECK_USER/PASSWORD empty, skipping protected endpoints")
		log.Println("=== API check finished ===")
		return
	}

	token, err := login(client, baseURL, user, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Println("[AUTH] login ok")

	for _, path := range []string{
		"/api/account",
		"/api/positions",
		"/api/orders",
		"/api/trades",
		"/api/trades/stats",
		"/api/market/prices",
		"/api/risk",
		"/api/strategies",
		"/api/metrics",
		"/api/killswitch",
	} {
		checkGet(client, baseURL+path, token)
	}

	log.Println("=== API check finished ===")
}

func login(client *http.Client, baseURL, user, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": user,
		"password": password,
	})
	resp, err := client.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("empty token in response")
	}
	return out.Token, nil
}

func checkGet(client *http.Client, url, token string) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Printf("❌ %s: %v", url, err)
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("❌ %s: %v", url, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusOK {
		log.Printf("✓ %s", url)
	} else {
		log.Printf("❌ %s: status %d", url, resp.StatusCode)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
