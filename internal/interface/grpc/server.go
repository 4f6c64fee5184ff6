// Package grpc gRPC健康检查服务
// 按组件(借阅、评论、推荐)报告服务状态,供负载均衡和编排系统探测
package grpc

import (
	"context"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// 组件服务名,与各组件的tracer名一致
const (
	ComponentLoan           = "library.loan"
	ComponentReview         = "library.review"
	ComponentRecommendation = "library.recommendation"
)

// Components 全部组件
var Components = []string{ComponentLoan, ComponentReview, ComponentRecommendation}

// Pinger 存储探活,*sql.DB满足该接口
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server gRPC服务器
type Server struct {
	grpc   *gogrpc.Server
	health *health.Server
}

// NewServer 创建服务器并注册健康检查
// 初始状态为NOT_SERVING,由调用方在依赖就绪后切换
func NewServer() *Server {
	srv := gogrpc.NewServer(
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
		gogrpc.ChainUnaryInterceptor(recoveryInterceptor),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{grpc: srv, health: hs}
	s.SetServing(false)
	return s
}

// SetServing 设置整体("")和全部组件的状态
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	for _, c := range Components {
		s.health.SetServingStatus(c, st)
	}
}

// Monitor 周期性探测存储,状态变化时切换健康状态,直到ctx取消
func (s *Server) Monitor(ctx context.Context, db Pinger, interval time.Duration) {
	check := func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx) == nil
	}

	serving := check()
	s.SetServing(serving)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ok := check(); ok != serving {
				serving = ok
				s.SetServing(ok)
				slog.Warn("health status changed", "serving", ok)
			}
		}
	}
}

// Serve 阻塞直到Stop
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("grpc server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop 先把健康状态置为NOT_SERVING再优雅关闭
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "grpc panic recovered", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
