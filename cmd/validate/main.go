// Command validate smoke-tests the endpoints of a running khazana server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type endpoint struct {
	path        string
	method      string
	body        string
	status      int
	contentType string
	contains    []string
}

// Read-only checks. {user} is replaced by the -user flag.
var endpoints = []endpoint{
	// API
	{path: "/api/health", method: "GET", contentType: "application/json", contains: []string{`"status":"ok"`}},
	{path: "/api/version", method: "GET", contentType: "application/json", contains: []string{`"name":"khazana"`}},

	// Ledger
	{path: "/api/users/{user}/transactions", method: "GET", contentType: "application/json", contains: []string{`"transactions"`, `"totalCount"`}},
	{path: "/api/users/{user}/transactions?type=deposit&perPage=5", method: "GET", contentType: "application/json", contains: nil},
	{path: "/api/users/{user}/stats", method: "GET", contentType: "application/json", contains: []string{`"month_spend"`}},

	// Gate: a fresh session is locked, so the balance must be refused
	{path: "/api/users/{user}/gate", method: "GET", contentType: "application/json", contains: []string{`"state"`}},
	{path: "/api/users/{user}/balance", method: "GET", status: http.StatusForbidden, contentType: "application/json", contains: nil},

	// Planning
	{path: "/api/users/{user}/budgets", method: "GET", contentType: "application/json", contains: []string{`"total_budget"`}},
	{path: "/api/users/{user}/categories", method: "GET", contentType: "application/json", contains: []string{`"builtin"`}},
	{path: "/api/users/{user}/categories/breakdown", method: "GET", contentType: "application/json", contains: nil},

	// Analytics
	{path: "/api/users/{user}/analytics/summary", method: "GET", contentType: "application/json", contains: []string{`"savings_rate"`}},
	{path: "/api/users/{user}/analytics/series", method: "GET", contentType: "application/json", contains: []string{`"labels"`}},
	{path: "/api/users/{user}/analytics/forecast", method: "GET", contentType: "application/json", contains: []string{`"available"`}},
	{path: "/api/users/{user}/analytics/insights", method: "GET", contentType: "application/json", contains: nil},
	{path: "/api/users/{user}/analytics/patterns", method: "GET", contentType: "application/json", contains: nil},
	{path: "/api/users/{user}/analytics/compare", method: "GET", contentType: "application/json", contains: []string{`"expense_change"`}},

	// Exports
	{path: "/api/users/{user}/export/csv", method: "GET", contentType: "text/csv", contains: []string{"Date,Type,Category,Details,Amount,Timestamp"}},
	{path: "/api/users/{user}/export/json", method: "GET", contentType: "application/json", contains: []string{`"exportDate"`}},
	{path: "/api/users/{user}/export/txt", method: "GET", contentType: "text/plain", contains: nil},
	{path: "/api/users/{user}/export/ml", method: "GET", contentType: "text/csv", contains: []string{"day_of_week"}},
	{path: "/api/users/{user}/export/report", method: "GET", contentType: "text/plain", contains: []string{"KHAZANA MONTHLY REPORT"}},
}

// Write checks run in order with -write. They record a deposit, unlock the
// gate with the default PIN, read the balance and lock the gate again.
var writeEndpoints = []endpoint{
	{path: "/api/users/{user}/transactions", method: "POST", status: http.StatusCreated, contentType: "application/json",
		body:     `{"type":"deposit","date":"{today}","amount":1,"category":"Other","source":"validate"}`,
		contains: []string{`"type":"deposit"`}},
	{path: "/api/users/{user}/gate/verify", method: "POST", contentType: "application/json",
		body: `{"pin":"123456"}`, contains: []string{`"state":"unlocked"`}},
	{path: "/api/users/{user}/balance", method: "GET", contentType: "application/json", contains: []string{`"formatted"`}},
	{path: "/api/users/{user}/gate/logout", method: "POST", contentType: "application/json", contains: []string{`"state":"locked"`}},
}

type result struct {
	endpoint endpoint
	status   int
	duration time.Duration
	err      error
	body     string
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Int("timeout", 10, "Request timeout in seconds")
	user := flag.String("user", "validate", "Account used for the per-user endpoints")
	write := flag.Bool("write", false, "Also run the write checks (records a deposit for -user)")
	flag.Parse()

	checks := endpoints
	if *write {
		checks = append(checks, writeEndpoints...)
	}

	client := &http.Client{
		Timeout: time.Duration(*timeout) * time.Second,
	}

	fmt.Printf("Validating server at %s\n", *url)
	fmt.Printf("Testing %d endpoints...\n\n", len(checks))

	var passed, failed int

	for _, ep := range checks {
		ep.path = strings.ReplaceAll(ep.path, "{user}", *user)
		ep.body = strings.ReplaceAll(ep.body, "{today}", time.Now().Format("2006-01-02"))
		if ep.status == 0 {
			ep.status = http.StatusOK
		}
		r := validateEndpoint(client, *url, ep)

		if r.err != nil {
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Error: %v\n", r.err)
		} else if r.status != ep.status {
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Status: %d (expected %d)\n", r.status, ep.status)
		} else {
			passed++
			if *verbose {
				fmt.Printf("PASS %s %s (%v)\n", ep.method, ep.path, r.duration)
			}
		}
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func validateEndpoint(client *http.Client, baseURL string, ep endpoint) result {
	start := time.Now()

	var reqBody io.Reader
	if ep.body != "" {
		reqBody = strings.NewReader(ep.body)
	}
	req, err := http.NewRequest(ep.method, baseURL+ep.path, reqBody)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to create request: %w", err)}
	}
	if ep.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to read body: %w", err)}
	}

	duration := time.Since(start)

	r := result{
		endpoint: ep,
		status:   resp.StatusCode,
		duration: duration,
		body:     string(body),
	}

	// Validate content type
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, ep.contentType) {
		r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return r
	}

	// Validate JSON if expected
	if ep.contentType == "application/json" {
		var js interface{}
		if err := json.Unmarshal(body, &js); err != nil {
			r.err = fmt.Errorf("invalid JSON: %w", err)
			return r
		}
	}

	// Validate required content
	for _, needle := range ep.contains {
		if !strings.Contains(string(body), needle) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}
