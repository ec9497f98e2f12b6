package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/parkerroan/ratechan"

	"golang.org/x/exp/slog"
)

type Config struct {
	Delay        time.Duration `envconfig:"THROTTLE_DELAY" default:"1s"`
	ProduceEvery time.Duration `envconfig:"PRODUCE_EVERY" default:"5ms"`
	RunFor       time.Duration `envconfig:"RUN_FOR" default:"5s"`
}

// Reading is a synthetic sensor sample. The producer emits these far faster
// than the consumer wants to see them.
type Reading struct {
	Seq  int
	Temp float64
}

func main() {
	// Load .env file from given path. We're assuming it's in the current directory.
	// Don't forget to check for errors.
	loadEnvFile()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	input := make(chan Reading, 1000)

	// Throttle the sensor stream to one reading per cfg.Delay. The consumer
	// sees the freshest reading at each boundary, not every sample.
	throttler := ratechan.NewThrottler(input, cfg.Delay)

	// Producer: emit samples as fast as configured, then close the input,
	// which shuts the adapter down and ends the output stream.
	go func() {
		defer close(input)
		deadline := time.Now().Add(cfg.RunFor)
		for seq := 0; time.Now().Before(deadline); seq++ {
			input <- Reading{
				Seq:  seq,
				Temp: 20 + rand.Float64()*5,
			}
			time.Sleep(cfg.ProduceEvery)
		}
	}()

	received := 0
	for r := range throttler.Output() {
		received++
		fmt.Printf("Reading %d: seq=%d temp=%.2f\n", received, r.Seq, r.Temp)
	}

	stats := throttler.Stats()
	slog.Info("sensor stream ended",
		slog.Uint64("forwarded", stats.Forwarded),
		slog.Uint64("coalesced", stats.Coalesced),
	)
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		// The file exists, now let's try to load it
		if err := godotenv.Load(); err != nil {
			// The file couldn't be loaded, log the error
			log.Fatalf("Error loading .env file: %s", err)
		}
	} else if !os.IsNotExist(err) {
		// There's an error other than "file does not exist", let's log it
		slog.Warn(fmt.Sprintf("Unexpected error looking for .env file: %s", err))
	}
}
