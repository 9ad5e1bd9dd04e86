package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"
)

// 简易压测工具：并发登录获取token后循环请求目标接口，输出延迟分布
// 用法：go run ./tools/bench -base http://localhost:8080 -c 50 -n 2000

type result struct {
	latency time.Duration
	status  int
	err     error
}

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	concurrency := flag.Int("c", 20, "concurrent workers")
	total := flag.Int("n", 1000, "total requests")
	path := flag.String("path", "/api/v1/chat/unread/count", "request path")
	username := flag.String("user", "alice", "login username")
	pass := flag.String("pass", "password123", "login password")
	flag.Parse()

	token, err := login(*base, *username, *pass)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	fmt.Printf("Logged in as %s\n", *username)
	fmt.Printf("Target: GET %s%s, %d requests, %d workers\n\n", *base, *path, *total, *concurrency)

	client := &http.Client{Timeout: 10 * time.Second}
	jobs := make(chan struct{}, *total)
	results := make(chan result, *total)
	for i := 0; i < *total; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				results <- doRequest(client, *base+*path, token)
			}
		}()
	}
	wg.Wait()
	close(results)
	elapsed := time.Since(start)

	report(results, *total, elapsed)
}

func login(base, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"identifier": username,
		"password":   password,
	})
	resp, err := http.Post(base+"/api/v1/users/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if !parsed.Success || parsed.Data.Token == "" {
		return "", fmt.Errorf("login rejected (status %d)", resp.StatusCode)
	}
	return parsed.Data.Token, nil
}

func doRequest(client *http.Client, url, token string) result {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return result{err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return result{latency: latency, err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{latency: latency, status: resp.StatusCode}
}

func report(results chan result, total int, elapsed time.Duration) {
	latencies := make([]time.Duration, 0, total)
	statuses := make(map[int]int)
	errors := 0
	for r := range results {
		if r.err != nil {
			errors++
			continue
		}
		statuses[r.status]++
		latencies = append(latencies, r.latency)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("Elapsed:    %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Throughput: %.1f req/s\n", float64(total)/elapsed.Seconds())
	fmt.Printf("Errors:     %d\n", errors)
	for status, count := range statuses {
		fmt.Printf("HTTP %d:   %d\n", status, count)
	}
	if len(latencies) > 0 {
		fmt.Printf("Latency:    p50=%v p90=%v p99=%v max=%v\n",
			percentile(latencies, 50),
			percentile(latencies, 90),
			percentile(latencies, 99),
			latencies[len(latencies)-1],
		)
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
