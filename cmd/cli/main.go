package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type status struct {
	Targets []struct {
		URL string `json:"url"`
		Up  bool   `json:"up"`
	} `json:"targets"`
	Down []string `json:"down"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	st, err := fetchStatus(context.Background(), strings.TrimRight(api, "/"), os.Getenv("API_KEY"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting monitor:", err)
		os.Exit(1)
	}

	for _, t := range st.Targets {
		mark := "🟢 up  "
		if !t.Up {
			mark = "🔴 down"
		}
		fmt.Println(mark, t.URL)
	}
	fmt.Printf("%d of %d site(s) down\n", len(st.Down), len(st.Targets))
}

func fetchStatus(ctx context.Context, base, key string) (*status, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return nil, err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status: %s", resp.Status)
	}

	var st status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}
