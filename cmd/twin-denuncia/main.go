// twin-denuncia serves the in-memory Back-S.O.S reporting service over HTTP
// and administers a running instance.
//
// Usage:
//
//	twin-denuncia serve [--port 8080] [--seed seed.yaml]   Run the twin
//	twin-denuncia status                                   Health and report count
//	twin-denuncia reset                                    Clear all state
//	twin-denuncia seed <file>                              Load reports from YAML/JSON
//	twin-denuncia protocol check <protocol>                Validate a protocol string
package main

import (
	"os"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
