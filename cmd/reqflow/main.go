// Command reqflow runs the requirements-engineering orchestration engine
// described by the engine's HTTP/SSE interface: POST /analyze to start a
// session, POST /clarify to answer questions, GET /session/{id}/events to
// follow its progress.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/reqflow/engine/cmd/reqflow/internal"
)

func main() {
	root := newRootCmd()
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "reqflow:", err)
	}
	os.Exit(internal.ExitCodeFor(err))
}
