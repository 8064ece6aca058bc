package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "us.matching.v1.MatchingService"

const (
	GetFeedPageFullMethod        = "/" + ServiceName + "/GetFeedPage"
	ReactFullMethod              = "/" + ServiceName + "/React"
	GetMatchesAndLikesFullMethod = "/" + ServiceName + "/GetMatchesAndLikes"
	RespondToLikeFullMethod      = "/" + ServiceName + "/RespondToLike"
	CountIncomingLikesFullMethod = "/" + ServiceName + "/CountIncomingLikes"
)

// MatchingServiceServer is implemented by the matching service.
type MatchingServiceServer interface {
	GetFeedPage(context.Context, *GetFeedPageRequest) (*GetFeedPageResponse, error)
	React(context.Context, *ReactRequest) (*ReactResponse, error)
	GetMatchesAndLikes(context.Context, *GetMatchesAndLikesRequest) (*GetMatchesAndLikesResponse, error)
	RespondToLike(context.Context, *RespondToLikeRequest) (*RespondToLikeResponse, error)
	CountIncomingLikes(context.Context, *CountIncomingLikesRequest) (*CountIncomingLikesResponse, error)
}

// RegisterMatchingServiceServer attaches srv to s.
func RegisterMatchingServiceServer(s grpc.ServiceRegistrar, srv MatchingServiceServer) {
	s.RegisterService(&MatchingServiceDesc, srv)
}

// unary builds a method handler around one typed call.
func unary[Req any, Resp any](
	fullMethod string,
	call func(MatchingServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatchingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MatchingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MatchingServiceDesc describes the service for grpc.Server.RegisterService.
var MatchingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetFeedPage",
			Handler:    unary(GetFeedPageFullMethod, MatchingServiceServer.GetFeedPage),
		},
		{
			MethodName: "React",
			Handler:    unary(ReactFullMethod, MatchingServiceServer.React),
		},
		{
			MethodName: "GetMatchesAndLikes",
			Handler:    unary(GetMatchesAndLikesFullMethod, MatchingServiceServer.GetMatchesAndLikes),
		},
		{
			MethodName: "RespondToLike",
			Handler:    unary(RespondToLikeFullMethod, MatchingServiceServer.RespondToLike),
		},
		{
			MethodName: "CountIncomingLikes",
			Handler:    unary(CountIncomingLikesFullMethod, MatchingServiceServer.CountIncomingLikes),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "us/matching/v1/matching.json",
}

// Client calls the matching service over a gRPC connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) GetFeedPage(ctx context.Context, in *GetFeedPageRequest, opts ...grpc.CallOption) (*GetFeedPageResponse, error) {
	out := new(GetFeedPageResponse)
	if err := c.invoke(ctx, GetFeedPageFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) React(ctx context.Context, in *ReactRequest, opts ...grpc.CallOption) (*ReactResponse, error) {
	out := new(ReactResponse)
	if err := c.invoke(ctx, ReactFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMatchesAndLikes(ctx context.Context, in *GetMatchesAndLikesRequest, opts ...grpc.CallOption) (*GetMatchesAndLikesResponse, error) {
	out := new(GetMatchesAndLikesResponse)
	if err := c.invoke(ctx, GetMatchesAndLikesFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RespondToLike(ctx context.Context, in *RespondToLikeRequest, opts ...grpc.CallOption) (*RespondToLikeResponse, error) {
	out := new(RespondToLikeResponse)
	if err := c.invoke(ctx, RespondToLikeFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CountIncomingLikes(ctx context.Context, in *CountIncomingLikesRequest, opts ...grpc.CallOption) (*CountIncomingLikesResponse, error) {
	out := new(CountIncomingLikesResponse)
	if err := c.invoke(ctx, CountIncomingLikesFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
