// Command wbsim runs a local Wildberries paid storage API stand-in for
// end-to-end testing. Point STORKEEP_WB_BASE_URL at it to run the
// service against generated data.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramezanov/storkeep/internal/wbsim"
)

// Default configuration constants.
const (
	defaultAddr          = ":9580"
	defaultRows          = 25
	defaultNotReadyPolls = 1
	readHeaderTimeout    = 5 * time.Second
	shutdownTimeout      = 5 * time.Second
)

func main() {
	var (
		addr          = flag.String("addr", defaultAddr, "Listen address")
		rows          = flag.Int("rows", defaultRows, "Report rows generated per task")
		notReadyPolls = flag.Int("not-ready-polls", defaultNotReadyPolls, "Empty download polls before the report appears")
		failEvery     = flag.Int("fail-every", 0, "Fail every n-th request with a 503 (0 disables)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := wbsim.New(
		wbsim.WithRows(*rows),
		wbsim.WithNotReadyPolls(*notReadyPolls),
		wbsim.WithFailEvery(*failEvery),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           sim,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("simulator failed: " + err.Error() + "\n")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
