// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcserver exposes the relay over gRPC next to the standard health service.
package grpcserver

import (
	"context"
	"net"

	"github.com/pterm/pterm"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"querydeck/cli/internal/bridge/model"
	"querydeck/cli/internal/logging"
	"querydeck/cli/internal/relay"
)

// Relayer is the service behind the gRPC endpoint; *relay.Service implements it.
type Relayer interface {
	Relay(ctx context.Context, req relay.Request) relay.Response
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: model.ServiceName,
	HandlerType: (*Relayer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: queryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "querydeck/relay",
}

func queryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req any) (any, error) {
		resp := srv.(Relayer).Relay(ctx, model.DecodeRequest(req.(*structpb.Struct)))
		out, err := model.EncodeResponse(resp)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return out, nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: model.QueryMethod}
	return interceptor(ctx, in, info, handler)
}

// Server serves the relay and health services.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *pterm.Logger
}

// New registers svc on a fresh gRPC server.
func New(svc Relayer, log *pterm.Logger, opts ...grpc.ServerOption) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{health: health.NewServer(), log: log}
	opts = append(opts, grpc.ChainUnaryInterceptor(s.recoverInterceptor))
	s.grpc = grpc.NewServer(opts...)
	s.grpc.RegisterService(&serviceDesc, svc)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(model.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc relay listening", s.log.Args("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop marks the services as not serving and drains open calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("grpc handler panicked", s.log.Args("method", info.FullMethod, "panic", r))
			err = status.Errorf(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
