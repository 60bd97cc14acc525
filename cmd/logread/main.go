// Command logread decodes the base64-encoded audit trail written by mazed
// back into readable JSON lines.
//
// Usage:
//
//	logread [-f maze_audit.log] [-type EVENT] [-min-level LEVEL]
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/audit"
)

func main() {
	path := flag.String("f", "maze_audit.log", "audit log file to decode")
	eventType := flag.String("type", "", "only show events of this type")
	minLevel := flag.String("min-level", "", "only show events at or above this level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("failed to open audit log: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close audit log: %v", err)
		}
	}()

	floor := parseLevel(*minLevel)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := audit.DecodeLine(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: undecodable: %v\n", lineNo, err)
			continue
		}
		if *eventType != "" && ev.EventType != *eventType {
			continue
		}
		if floor != nil && parseEventLevel(ev.Level) < *floor {
			continue
		}
		out, err := json.Marshal(ev)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: re-encode failed: %v\n", lineNo, err)
			continue
		}
		fmt.Println(string(out))
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("failed to read audit log: %v", err)
	}
}

func parseLevel(s string) *slog.Level {
	if s == "" {
		return nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		log.Fatalf("invalid level %q: %v", s, err)
	}
	return &lvl
}

func parseEventLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
