package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"phrasehub/pkg/models"
)

const (
	serviceName     = "phrasehub.SearchService"
	searchMethod    = "/" + serviceName + "/Search"
	getSearchMethod = "/" + serviceName + "/GetSearch"
)

type SearchRequest struct {
	Query string `json:"query"`
	// Top trims the word tallies of the summary; zero keeps all.
	Top int `json:"top,omitempty"`
}

// SearchReply carries either one batch or, last, the summary record.
type SearchReply struct {
	Batch   *models.BatchRecord  `json:"batch,omitempty"`
	Summary *models.SearchRecord `json:"summary,omitempty"`
}

type GetSearchRequest struct {
	ID string `json:"id"`
}

type GetSearchReply struct {
	Record *models.SearchRecord `json:"record"`
}

// SearchServiceServer is implemented by Server.
type SearchServiceServer interface {
	Search(*SearchRequest, SearchStream) error
	GetSearch(context.Context, *GetSearchRequest) (*GetSearchReply, error)
}

// SearchStream is the server side of a Search call.
type SearchStream interface {
	Send(*SearchReply) error
	grpc.ServerStream
}

type searchStream struct {
	grpc.ServerStream
}

func (s searchStream) Send(r *SearchReply) error { return s.ServerStream.SendMsg(r) }

// ServiceDesc describes phrasehub.SearchService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SearchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSearch", Handler: getSearchHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Search", Handler: searchHandler, ServerStreams: true},
	},
	Metadata: "phrasehub/search",
}

func RegisterSearchServiceServer(s grpc.ServiceRegistrar, srv SearchServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func searchHandler(srv any, stream grpc.ServerStream) error {
	req := new(SearchRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(SearchServiceServer).Search(req, searchStream{stream})
}

func getSearchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetSearchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SearchServiceServer).GetSearch(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSearchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SearchServiceServer).GetSearch(ctx, req.(*GetSearchRequest))
	}
	return interceptor(ctx, req, info, handler)
}
