package grpcserver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bibhub/internal/logging"
	"bibhub/internal/query"
	"bibhub/internal/restaurants"
)

type Server struct {
	Service *restaurants.Service
}

func NewServer(svc *restaurants.Service) *Server {
	return &Server{Service: svc}
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	found, err := s.Service.Search(ctx, req.request())
	if err != nil {
		if errors.Is(err, query.ErrInvalidRequest) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, "search failed")
	}
	return &SearchResponse{Restaurants: found}, nil
}

func (s *Server) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	if req == nil || req.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	r, err := s.Service.Get(ctx, req.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, "get failed")
	}
	if r == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return &GetResponse{Restaurant: r}, nil
}

// New returns a grpc.Server with the restaurant service registered and
// every call logged.
func New(svc *restaurants.Service, logger zerolog.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary(logger)))
	Register(gs, NewServer(svc))
	return gs
}

func logUnary(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = logging.WithLogger(ctx, logger)
		resp, err := handler(ctx, req)

		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Str("code", status.Code(err).String())
		}
		ev.Str("method", info.FullMethod).Dur("took", time.Since(start)).Msg("grpc call")
		return resp, err
	}
}
