// cmd/historian/main.go is an asynchronous archiver that pops audit events
// from the Redis queue and appends them to a JSONL archive file. The
// database event_logs table remains the system of record; this mirror feeds
// external tooling without touching the live database.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
)

// Archiver batches queue entries and flushes them to the archive file.
type Archiver struct {
	redisClient *redis.Client
	queueName   string
	archivePath string
	batchSize   int
	flushDelay  time.Duration

	batchMu sync.Mutex
	batch   [][]byte
}

// NewArchiver constructs an Archiver from environment variables or defaults.
func NewArchiver() *Archiver {
	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	return &Archiver{
		redisClient: rdb,
		queueName:   getEnv("AUDIT_QUEUE_NAME", "liveops_events"),
		archivePath: getEnv("AUDIT_ARCHIVE_PATH", "audit_events.jsonl"),
		batchSize:   getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		flushDelay:  time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}
}

// Run reads the queue until the context is cancelled, then drains the last
// batch.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.flushDelay)
	defer ticker.Stop()

	go a.readLoop(ctx)

	log.Println("liveops-historian started.")
	for {
		select {
		case <-ctx.Done():
			a.flush()
			log.Println("liveops-historian shutting down.")
			return
		case <-ticker.C:
			a.flush()
		}
	}
}

// readLoop BLPOPs entries off the queue into the pending batch.
func (a *Archiver) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := a.redisClient.BLPop(ctx, 2*time.Second, a.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("BLPOP error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		// res[0] is the queue name, res[1] the payload.
		if len(res) < 2 {
			continue
		}
		a.batchMu.Lock()
		a.batch = append(a.batch, []byte(res[1]))
		full := len(a.batch) >= a.batchSize
		a.batchMu.Unlock()
		if full {
			a.flush()
		}
	}
}

// flush appends the pending batch to the archive file, one JSON object per
// line.
func (a *Archiver) flush() {
	a.batchMu.Lock()
	pending := a.batch
	a.batch = nil
	a.batchMu.Unlock()
	if len(pending) == 0 {
		return
	}

	f, err := os.OpenFile(a.archivePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("open archive: %v", err)
		return
	}
	defer f.Close()
	for _, line := range pending {
		if _, err := f.Write(append(line, '\n')); err != nil {
			log.Printf("write archive: %v", err)
			return
		}
	}
	log.Printf("archived %d events", len(pending))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	NewArchiver().Run(ctx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
