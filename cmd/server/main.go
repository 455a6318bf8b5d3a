package main

import (
	"flag"
	"log"

	"github.com/tuannm99/mimicsql/server/mimicsqlwire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8866", "TCP listen address")
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	flag.Parse()

	if err := mimicsqlwire.Run(mimicsqlwire.ServerConfig{
		Addr:    *addr,
		CfgPath: *cfgPath,
	}); err != nil {
		log.Fatalf("server: %v", err)
	}
}
