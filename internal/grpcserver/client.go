package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"phrasehub/pkg/models"
)

// Client calls SearchService over a plaintext connection.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr. Extra options are appended after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Search calls onBatch for every batch and returns the summary record.
func (c *Client) Search(ctx context.Context, query string, top int, onBatch func(models.BatchRecord)) (*models.SearchRecord, error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], searchMethod)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&SearchRequest{Query: query, Top: top}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var summary *models.SearchRecord
	for {
		var reply SearchReply
		err := stream.RecvMsg(&reply)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if reply.Batch != nil && onBatch != nil {
			onBatch(*reply.Batch)
		}
		if reply.Summary != nil {
			summary = reply.Summary
		}
	}
	if summary == nil {
		return nil, errors.New("grpc: stream ended without a summary")
	}
	return summary, nil
}

func (c *Client) GetSearch(ctx context.Context, id string) (*models.SearchRecord, error) {
	var reply GetSearchReply
	if err := c.conn.Invoke(ctx, getSearchMethod, &GetSearchRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	return reply.Record, nil
}
