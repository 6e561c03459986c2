// Command btelem-producer is a minimal example producer: it registers one
// schema and logs synthetic entries at a configurable rate. It exists to
// exercise the Context/Ring/Registry hot path end to end, the way
// order-matching-engine/cmd/client/main.go exercises the disruptor ring
// from the client side.
package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/benjaminfrazer/btelem"
)

// sampleReading is the fixed-size payload for schema id readingSchemaID.
// It is plain old data only — no pointers, slices, or strings — since
// btelem.Log views it as raw bytes.
type sampleReading struct {
	Value     float64
	ChannelID uint16
	Flags     uint16
}

const readingSchemaID = 0

func main() {
	var (
		configPath = pflag.String("config", "", "path to a YAML config file (optional)")
		ratePerSec = pflag.Int("rate", 1000, "synthetic entries logged per second")
		duration   = pflag.Duration("duration", 10*time.Second, "how long to produce before exiting")
	)
	pflag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := btelem.DefaultConfig()
	if *configPath != "" {
		loaded, err := btelem.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("loading config", zap.Error(err))
		}
		cfg = loaded
	}

	ctx, err := btelem.NewContext(cfg, logger)
	if err != nil {
		logger.Fatal("constructing context", zap.Error(err))
	}

	if err := ctx.Register(&btelem.SchemaDescriptor{
		ID:          readingSchemaID,
		Name:        "reading",
		Description: "synthetic sensor reading",
		PayloadSize: 16, // unsafe.Sizeof(sampleReading{}): 12 bytes of fields plus 4 of padding
		Fields: []btelem.Field{
			{Name: "value", Offset: 0, Size: 8, Type: btelem.TypeF64, Count: 1},
			{Name: "channel_id", Offset: 8, Size: 2, Type: btelem.TypeU16, Count: 1},
			{Name: "flags", Offset: 10, Size: 2, Type: btelem.TypeBitfield, Count: 1,
				Bitfield: &btelem.BitfieldDef{Bits: []btelem.BitDef{
					{Name: "saturated", Start: 0, Width: 1},
					{Name: "calibrated", Start: 1, Width: 1},
				}}},
		},
	}); err != nil {
		logger.Fatal("registering schema", zap.Error(err))
	}

	interval := time.Second / time.Duration(*ratePerSec)
	deadline := time.Now().Add(*duration)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var logged uint64
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		reading := sampleReading{
			Value:     rand.Float64() * 100,
			ChannelID: uint16(logged % 8),
			Flags:     uint16(logged % 4),
		}
		if _, err := btelem.Log(ctx, readingSchemaID, reading); err != nil {
			logger.Error("log failed", zap.Error(err))
			os.Exit(1)
		}
		logged++
	}

	logger.Info("producer finished", zap.Uint64("entries_logged", logged))
}
