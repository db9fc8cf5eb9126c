// taskdata-submit sends a sample batch to a running taskdata server
// and prints the response. It exists to smoke-test a deployment.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	url := flag.String("url", "http://localhost:5000", "server URL")
	id := flag.String("id", "test", "participant ID")
	session := flag.String("session", "001", "session ID")
	task := flag.String("task", "", "task name (server defaults to 'unknown')")
	writeMode := flag.String("write-mode", "", "write mode: append or overwrite")
	count := flag.Int("count", 4, "number of sample records to send")
	flag.Parse()

	now := time.Now().UnixMilli()
	data := make([]map[string]any, 0, *count)
	for i := 0; i < *count; i++ {
		marker := fmt.Sprintf("test_stimulus_%d", i/2+1)
		if i%2 == 1 {
			marker = fmt.Sprintf("test_response_%d", i/2+1)
		}
		data = append(data, map[string]any{
			"time":   now + int64(i*100),
			"value":  0.5 + float64(i)*0.1,
			"marker": marker,
		})
	}

	payload := map[string]any{
		"id":      *id,
		"session": *session,
		"data":    data,
	}
	if *task != "" {
		payload["task"] = *task
	}
	if *writeMode != "" {
		payload["write_mode"] = *writeMode
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sending %d records to %s (participant=%s session=%s)\n",
		*count, *url, *id, *session)

	resp, err := http.Post(*url+"/submit_data", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "Make sure the server is running and the URL is correct.")
		os.Exit(1)
	}
	defer resp.Body.Close()

	var pretty bytes.Buffer
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "decode response: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(&pretty)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)

	fmt.Printf("Status: %d\n%s", resp.StatusCode, pretty.String())

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
