// runctl triggers and follows monitoring runs over the HTTP API.
//
//	runctl start
//	runctl status <run-id>
//	runctl cancel <run-id>
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "start":
		var resp struct {
			RunID string `json:"run_id"`
		}
		if err := call(api, key, http.MethodPost, "/api/runs", map[string]string{"triggered_by": "runctl"}, &resp); err != nil {
			fail(err)
		}
		fmt.Println("run started:", resp.RunID)

	case "status":
		if len(os.Args) < 3 {
			usage()
		}
		var resp struct {
			Status      string  `json:"status"`
			Progress    int     `json:"progress"`
			CurrentTest string  `json:"current_test"`
			Error       string  `json:"error"`
			Remaining   *int64  `json:"estimated_remaining_ms"`
		}
		if err := call(api, key, http.MethodGet, "/api/progress/"+os.Args[2], nil, &resp); err != nil {
			fail(err)
		}
		fmt.Printf("status=%s progress=%d%%", resp.Status, resp.Progress)
		if resp.CurrentTest != "" {
			fmt.Printf(" current=%s", resp.CurrentTest)
		}
		if resp.Remaining != nil {
			fmt.Printf(" eta=%s", time.Duration(*resp.Remaining)*time.Millisecond)
		}
		if resp.Error != "" {
			fmt.Printf(" error=%q", resp.Error)
		}
		fmt.Println()

	case "cancel":
		if len(os.Args) < 3 {
			usage()
		}
		var resp struct {
			Status string `json:"status"`
		}
		if err := call(api, key, http.MethodPost, "/api/progress/"+os.Args[2]+"/cancel", map[string]string{"cancelled_by": "runctl"}, &resp); err != nil {
			fail(err)
		}
		fmt.Println("cancel:", resp.Status)

	default:
		usage()
	}
}

func call(api, key, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, api+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(data))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: runctl start | status <run-id> | cancel <run-id>")
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
