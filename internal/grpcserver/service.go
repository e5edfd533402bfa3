package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"bibhub/internal/query"
	"bibhub/pkg/models"
)

const (
	ServiceName  = "bibhub.RestaurantService"
	SearchMethod = "/" + ServiceName + "/Search"
	GetMethod    = "/" + ServiceName + "/Get"
)

type SearchRequest struct {
	Distinction  string         `json:"distinction"`
	CookingType  string         `json:"cooking,omitempty"`
	Query        string         `json:"query,omitempty"`
	Sort         string         `json:"sorting,omitempty"`
	UserLocation *query.LatLong `json:"userLocation,omitempty"`
}

func (r *SearchRequest) request() query.Request {
	return query.Request{
		Distinction:  r.Distinction,
		CookingType:  r.CookingType,
		Query:        r.Query,
		Sort:         r.Sort,
		UserLocation: r.UserLocation,
	}
}

type SearchResponse struct {
	Restaurants []models.Restaurant `json:"restaurants"`
}

type GetRequest struct {
	ID int `json:"id"`
}

type GetResponse struct {
	Restaurant *models.Restaurant `json:"restaurant"`
}

// RestaurantServer is the server side of bibhub.RestaurantService.
type RestaurantServer interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Get(ctx context.Context, req *GetRequest) (*GetResponse, error)
}

// ServiceDesc describes bibhub.RestaurantService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RestaurantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Search", Handler: searchHandler},
		{MethodName: "Get", Handler: getHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bibhub/restaurant",
}

func Register(s grpc.ServiceRegistrar, srv RestaurantServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func searchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SearchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RestaurantServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SearchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RestaurantServer).Search(ctx, req.(*SearchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RestaurantServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RestaurantServer).Get(ctx, req.(*GetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls bibhub.RestaurantService over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Search(ctx context.Context, req *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	out := new(SearchResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, SearchMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, req *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	out := new(GetResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, GetMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
