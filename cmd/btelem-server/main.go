// Command btelem-server is the TCP accept/serve loop the core library
// treats as an external collaborator: the core only has to expose a
// schema codec and a packed drain that produce transport-ready bytes.
// This binary is a thin, standard per-connection-thread server that does
// exactly that — register a schema, accept connections, and on each one
// stream the schema wire format once followed by packed packets on an
// interval — to demonstrate the boundary, not to be the shipped server.
//
// Grounded in shape on order-matching-engine/cmd/server/main.go (flag
// parse, construct the domain object, serve).
package main

import (
	"net"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/benjaminfrazer/btelem"
)

const readingSchemaID = 0

func main() {
	var (
		listenAddr  = pflag.String("listen", ":9191", "TCP listen address")
		drainPeriod = pflag.Duration("drain-period", 50*time.Millisecond, "how often each connection drains the ring")
	)
	pflag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := btelem.DefaultConfig()
	ctx, err := btelem.NewContext(cfg, logger)
	if err != nil {
		logger.Fatal("constructing context", zap.Error(err))
	}
	if err := ctx.Register(&btelem.SchemaDescriptor{
		ID:          readingSchemaID,
		Name:        "reading",
		Description: "synthetic sensor reading",
		PayloadSize: 12,
		Fields: []btelem.Field{
			{Name: "value", Offset: 0, Size: 8, Type: btelem.TypeF64, Count: 1},
			{Name: "channel_id", Offset: 8, Size: 2, Type: btelem.TypeU16, Count: 1},
		},
	}); err != nil {
		logger.Fatal("registering schema", zap.Error(err))
	}

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
	logger.Info("btelem server listening", zap.String("addr", *listenAddr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Error("accept", zap.Error(err))
			continue
		}
		go serve(ctx, conn, *drainPeriod, logger)
	}
}

// serve hosts one client's drain loop on its own goroutine, one thread
// per connection.
func serve(ctx *btelem.Context, conn net.Conn, drainPeriod time.Duration, logger *zap.Logger) {
	defer conn.Close()

	clientID, err := ctx.OpenClient()
	if err != nil {
		logger.Error("open client", zap.Error(err))
		return
	}
	defer ctx.CloseClient(clientID)

	wire := ctx.SchemaWire()
	schemaBuf := make([]byte, wire.Len())
	if _, err := wire.Serialize(schemaBuf); err != nil {
		logger.Error("serialize schema", zap.Error(err))
		return
	}
	if err := btelem.WriteFramed(conn, schemaBuf); err != nil {
		logger.Error("write schema frame", zap.Error(err))
		return
	}

	packetBuf := make([]byte, 64*1024)
	ticker := time.NewTicker(drainPeriod)
	defer ticker.Stop()

	for range ticker.C {
		n, err := ctx.DrainPacked(clientID, packetBuf)
		if err != nil {
			logger.Error("drain packed", zap.Error(err))
			return
		}
		if n == 0 {
			continue
		}
		if err := btelem.WriteFramed(conn, packetBuf[:n]); err != nil {
			logger.Info("connection closed", zap.Error(err))
			return
		}
	}
}
