package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"phrasehub/internal/history"
	"phrasehub/internal/search"
)

type Server struct {
	Service *search.Service
	History *history.Repo
	Logger  *slog.Logger
}

func NewServer(svc *search.Service, repo *history.Repo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Service: svc, History: repo, Logger: logger}
}

func (s *Server) Search(req *SearchRequest, stream SearchStream) error {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return status.Error(codes.InvalidArgument, "query required")
	}

	run, err := s.Service.Start(stream.Context(), req.Query)
	if errors.Is(err, search.ErrEmptyQuery) {
		return status.Error(codes.InvalidArgument, "query required")
	}
	if err != nil {
		return status.Error(codes.Internal, "search failed")
	}

	for b := range run.Batches() {
		rec := b.Record()
		if err := stream.Send(&SearchReply{Batch: &rec}); err != nil {
			s.Logger.Warn("grpc send failed", "id", run.ID, "err", err)
			run.Wait()
			return err
		}
	}

	rec := run.Wait()
	if err := stream.Context().Err(); err != nil {
		return status.FromContextError(err).Err()
	}
	rec.LeftWords = search.TrimWords(rec.LeftWords, req.Top)
	rec.RightWords = search.TrimWords(rec.RightWords, req.Top)
	return stream.Send(&SearchReply{Summary: &rec})
}

func (s *Server) GetSearch(ctx context.Context, req *GetSearchRequest) (*GetSearchReply, error) {
	if req == nil || strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if s.History == nil {
		return nil, status.Error(codes.Unavailable, "history disabled")
	}

	rec, err := s.History.Get(ctx, strings.TrimSpace(req.ID))
	if err != nil {
		return nil, status.Error(codes.Internal, "get failed")
	}
	if rec == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return &GetSearchReply{Record: rec}, nil
}
