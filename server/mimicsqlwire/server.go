package mimicsqlwire

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuannm99/mimicsql/internal"
	"github.com/tuannm99/mimicsql/internal/engine"
)

type ServerConfig struct {
	Addr    string
	CfgPath string
}

// Run serves the length-prefixed JSON protocol on sc.Addr. All
// connections share one in-memory engine server; each TCP connection
// gets its own session so USE <db> is session-scoped.
func Run(sc ServerConfig) error {
	var cfg *internal.MimicSqlConfig
	if sc.CfgPath != "" {
		c, err := internal.LoadConfig(sc.CfgPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
	}

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() { _ = ln.Close() }()

	log.Printf("mimicsql tcp server listening on %s", sc.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	srv := engine.NewServer()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Printf("accept: %v", err)
			continue
		}
		go handleConn(ctx, conn, srv, cfg)
	}
}

func handleConn(ctx context.Context, conn net.Conn, srv *engine.Server, cfg *internal.MimicSqlConfig) {
	defer func() { _ = conn.Close() }()

	// No global deadline; the client sets per-request deadlines.
	_ = conn.SetDeadline(time.Time{})

	sess := srv.NewConnection("")
	if cfg != nil {
		qc := sess.QueryContext()
		qc.StrictSQLMode = cfg.Session.StrictSQLMode
		qc.PreventReplicaReadsAfterWrites = cfg.Session.PreventReplicaReadsAfterWrites
		qc.RelaxUniqueConstraints = cfg.Session.RelaxUniqueConstraints
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req ExecuteRequest
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			return
		}

		res, err := sess.ExecSQL(req.SQL)
		if err != nil {
			_ = WriteFrame(conn, ExecuteResponse{
				ID:    req.ID,
				Error: err.Error(),
			})
			continue
		}

		_ = WriteFrame(conn, ExecuteResponse{
			ID:     req.ID,
			Result: res,
		})
	}
}
