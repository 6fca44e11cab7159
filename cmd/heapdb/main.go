// Command heapdb is a thin entry point over the storage engine: it loads
// configuration, wires up the disk manager and buffer pool, and prints a
// buffer-pool inspection dump. There is no SQL front-end or network
// listener here — those are explicitly out of scope for this engine.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/novaheap/heapdb/internal/buffer"
	"github.com/novaheap/heapdb/internal/config"
	"github.com/novaheap/heapdb/internal/disk"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "heapdb.yaml", "Path to heapdb yaml config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	dm := disk.NewManager(cfg.Storage.DataDir)
	capacity := cfg.Buffer.Capacity
	if capacity <= 0 {
		capacity = 16
	}
	bp := buffer.New(capacity)

	slog.Debug("heapdb: started", "dataDir", cfg.Storage.DataDir, "bufferCapacity", capacity)

	switch cmd := flag.Arg(0); cmd {
	case "inspect":
		fmt.Print(bp.DebugDump())
	default:
		fmt.Printf("usage: heapdb -config <path> inspect\n")
	}

	_ = dm
}
