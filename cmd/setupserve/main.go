package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/syla-platform/setupserve/auth"
	"github.com/syla-platform/setupserve/middleware"
	"github.com/syla-platform/setupserve/script"
	"github.com/syla-platform/setupserve/server"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPort = 8443
	realm       = "Syla Setup"
	scriptName  = "setup.sh"
)

// Fixed for the process lifetime. Change these before deploying.
var users = map[string]string{
	"dev":   "syla-dev-2024",
	"admin": "syla-admin-secure",
}

func main() {
	port := defaultPort

	if len(os.Args) > 1 {
		p, err := strconv.Atoi(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage: %s [port]\n", filepath.Base(os.Args[0]))
			os.Exit(2)
		}

		port = p
	}

	gate := auth.New(users)

	endpoint := script.NewEndpoint(installDir(), scriptName)
	endpoint.Use(middleware.NewRecoveryMiddleware(slog.Default()))
	endpoint.Use(middleware.NewAccessLogMiddleware(slog.Default()))
	endpoint.Use(middleware.NewBasicAuthMiddleware(gate, realm))

	srv := server.NewServer(fmt.Sprintf(":%d", port))
	srv.AddEndpoint(endpoint)

	printUsage(port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(srv.Run)
	group.Go(func() error {
		<-groupCtx.Done()
		fmt.Println("\nShutting down server...")

		return srv.Close()
	})

	if err := group.Wait(); err != nil {
		slog.Error("Fail to start setup server", "error", err)
		os.Exit(1)
	}

	os.Exit(0)
}

// installDir resolves the directory the server binary is installed in; the
// artifact is expected to live alongside it.
func installDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}

	return filepath.Dir(exe)
}

func printUsage(port int) {
	fmt.Printf("Starting Syla setup server on port %d\n", port)
	fmt.Printf("Setup URL: http://localhost:%d/%s\n", port, scriptName)
	fmt.Println("\nExample usage:")
	fmt.Printf("  curl -u dev:password http://localhost:%d/%s | sh\n", port, scriptName)
	fmt.Printf("  curl -u dev:password http://localhost:%d/%s | sh -s -- --path /custom/path\n", port, scriptName)
	fmt.Println("\nPress Ctrl+C to stop the server")
}
