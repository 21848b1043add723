package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

// Small operator CLI: push a document file into the running service's index
// and poll the stats endpoint.
func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:3000", "service base URL")
		sourceURL = flag.String("source", "", "source_url to store with the chunks (required)")
		file      = flag.String("file", "", "path to the document text file (required)")
		statsOnly = flag.Bool("stats", false, "only print index stats and exit")
	)
	flag.Parse()

	client := &http.Client{Timeout: 60 * time.Second}

	if *statsOnly {
		printStats(client, *baseURL)
		return
	}

	if *sourceURL == "" || *file == "" {
		color.Red("both -source and -file are required")
		flag.Usage()
		os.Exit(1)
	}

	text, err := os.ReadFile(*file)
	if err != nil {
		color.Red("Failed to read %s: %v", *file, err)
		os.Exit(1)
	}

	color.Cyan("Submitting %s (%d bytes) as %s", *file, len(text), *sourceURL)

	payload := map[string]interface{}{
		"source_url": *sourceURL,
		"text":       string(text),
	}
	body, _ := json.Marshal(payload)

	resp, err := client.Post(*baseURL+"/api/v1/index/documents", "application/json", bytes.NewBuffer(body))
	if err != nil {
		color.Red("Request failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		color.Red("Status: %s", resp.Status)
		fmt.Println(string(respBody))
		os.Exit(1)
	}

	color.Green("Status: %s", resp.Status)
	prettyPrint(respBody)

	printStats(client, *baseURL)
}

func printStats(client *http.Client, baseURL string) {
	resp, err := client.Get(baseURL + "/api/v1/index/stats")
	if err != nil {
		color.Red("Stats request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	color.Yellow("\nIndex stats:")
	prettyPrint(body)
}

func prettyPrint(raw []byte) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(string(b))
}
