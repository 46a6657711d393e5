// Command recall-send delivers a conversation payload to a running
// recall-worker by dropping it into the shared inbound directory. It reads
// the payload JSON from a file or stdin.
//
// Usage:
//
//	recall-send -file payload.json
//	cat payload.json | recall-send
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/notify"
	"github.com/scrypster/recall/pkg/types"
)

func main() {
	filePath := flag.String("file", "", "Path to a payload JSON file (default: read stdin)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	data, err := readPayload(*filePath)
	if err != nil {
		log.Fatalf("Failed to read payload: %v", err)
	}

	var payload types.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Fatalf("Invalid payload JSON: %v", err)
	}
	if payload.SessionID == "" {
		log.Fatal("Payload is missing sessionId")
	}

	writer := notify.NewPayloadWriter(cfg.Inbound.PayloadDir)
	path, err := writer.Write(&payload)
	if err != nil {
		log.Fatalf("Failed to deliver payload: %v", err)
	}

	log.Printf("Delivered session %s (%d historical, %d current turns) to %s",
		payload.SessionID, len(payload.HistoricalContext), len(payload.CurrentContext), path)
}

func readPayload(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
