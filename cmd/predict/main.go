package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"phishdetector/pkg/client"
	"time"
)

func main() {
	var (
		apiURL  string
		timeout time.Duration
	)
	flag.StringVar(&apiURL, "api", "http://localhost:8001/api/v1", "base url of the prediction api")
	flag.DurationVar(&timeout, "timeout", time.Minute, "request timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: predict [-api url] <file.csv>")
	}
	path := flag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("error opening %s: %v", path, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	predictions, err := client.New(apiURL).Predict(ctx, filepath.Base(path), f)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(predictions); err != nil {
		log.Fatalf("error writing predictions: %v", err)
	}
}
