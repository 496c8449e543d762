package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	dasgrpc "github.com/blockberries/dasguard/grpc"
	"github.com/blockberries/dasguard/sandbox"
	"github.com/blockberries/dasguard/server"
)

type serveFlags struct {
	listen  string
	metrics string
	timeout time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validator over gRPC",
		Long: `Serves the dasguard.v1.Validator gRPC service and, unless --metrics
is empty, Prometheus metrics on /metrics. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.listen, "listen", "127.0.0.1:7070", "gRPC listen address")
	cmd.Flags().StringVar(&f.metrics, "metrics", "127.0.0.1:9100", "metrics listen address (empty disables)")
	cmd.Flags().DurationVar(&f.timeout, "sandbox-timeout", 0,
		"wall-clock bound per sandboxed module run; a run over it is reported as aborted (0 disables)")
	return cmd
}

func (a *app) serve(ctx context.Context, f serveFlags) error {
	d, closeEngine, err := a.dispatcher(ctx, sandbox.WithTimeout(f.timeout))
	if err != nil {
		return err
	}
	defer closeEngine()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gs := dasgrpc.NewGRPCServer(d,
		server.WithLogger(a.logger.Named("server")),
		server.WithMetrics(server.NewMetrics(reg)))

	lis, err := net.Listen("tcp", f.listen)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer()
	gs.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("serving gRPC", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})

	var metricsServer *http.Server
	if f.metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: f.metrics, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			a.logger.Info("serving metrics", zap.String("addr", f.metrics))
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		grpcServer.GracefulStop()
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		}
		return nil
	})
	return g.Wait()
}
