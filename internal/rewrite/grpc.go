package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// #region codec
// codecName is the content subtype; requests travel as application/grpc+json.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// #endregion codec

// #region service-desc
const rewriteMethod = "/wargames.Rewriter/Rewrite"

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "wargames.Rewriter",
	HandlerType: (*Rewriter)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Rewrite", Handler: rewriteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wargames/rewriter",
}

func rewriteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return serveRewrite(ctx, srv.(Rewriter), in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rewriteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return serveRewrite(ctx, srv.(Rewriter), req.(*Request))
	}
	return interceptor(ctx, in, info, handler)
}

func serveRewrite(ctx context.Context, r Rewriter, req *Request) (*Response, error) {
	if req.ChangedID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing changedId")
	}
	updates, err := r.Rewrite(ctx, *req)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "rewrite: %v", err)
	}
	return &Response{Updates: updates}, nil
}

// RegisterServer exposes r on s as wargames.Rewriter/Rewrite.
func RegisterServer(s *grpc.Server, r Rewriter) {
	s.RegisterService(&serviceDesc, r)
}

// Serve hosts r on addr until ctx is done.
func Serve(ctx context.Context, addr string, r Rewriter) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s := grpc.NewServer()
	RegisterServer(s, r)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return fmt.Errorf("serve rewriter: %w", err)
	}
}

// #endregion service-desc

// #region client
// GRPCClient calls a rewriter hosted in another process.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// NewGRPCClient connects to a rewriter server.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Rewrite sends req to the remote rewriter.
func (c *GRPCClient) Rewrite(ctx context.Context, req Request) ([]Update, error) {
	var resp Response
	err := c.conn.Invoke(ctx, rewriteMethod, &req, &resp, grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, fmt.Errorf("rewrite rpc: %w", err)
	}
	return resp.Updates, nil
}

// #endregion client
