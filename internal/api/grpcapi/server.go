// Package grpcapi exposes the matching engine over gRPC. Health checking
// and reflection run grpc-go's pre-built services; SubmitOrder and
// GetOrderbook are registered RPCs that exchange structpb.Struct payloads.
package grpcapi

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shopspring/decimal"

	"github.com/vmartynenko/clob-engine/internal/core"
	"github.com/vmartynenko/clob-engine/internal/domain"
)

const serviceName = "clobengine.MatchingEngine"

// matchingEngineServer is the interface RegisterService checks Server
// against.
type matchingEngineServer interface {
	SubmitOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrderbook(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*matchingEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitOrder", Handler: submitOrderHandler},
		{MethodName: "GetOrderbook", Handler: getOrderbookHandler},
	},
	Metadata: "internal/api/grpcapi/server.go",
}

type Server struct {
	eng    *core.Engine
	grpc   *grpc.Server
	health *health.Server
}

func NewServer(eng *core.Engine) *Server {
	s := &Server{eng: eng, health: health.NewServer()}
	gs := grpc.NewServer()

	healthpb.RegisterHealthServer(gs, s.health)
	reflection.Register(gs)
	gs.RegisterService(&serviceDesc, s)

	s.grpc = gs
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

func (s *Server) Stop() {
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	s.grpc.GracefulStop()
}

func submitOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(matchingEngineServer).SubmitOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SubmitOrder"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(matchingEngineServer).SubmitOrder(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getOrderbookHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(matchingEngineServer).GetOrderbook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetOrderbook"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(matchingEngineServer).GetOrderbook(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SubmitOrder accepts a Struct shaped like
// {client_id, side, type, price, quantity} and returns one shaped like
// {order_id, status, remaining, trades}.
func (s *Server) SubmitOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	price := decimal.Zero
	if raw := fields["price"].GetStringValue(); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("grpcapi: invalid price %q: %w", raw, err)
		}
		price = p
	}

	o := &domain.Order{
		ClientID: fields["client_id"].GetStringValue(),
		Side:     domain.Side(fields["side"].GetStringValue()),
		Type:     domain.OrderType(fields["type"].GetStringValue()),
		Price:    price,
		Quantity: int64(fields["quantity"].GetNumberValue()),
	}

	trades, err := s.eng.SubmitOrder(ctx, o)
	if err != nil {
		return nil, err
	}

	tradeVals := make([]*structpb.Value, len(trades))
	for i, t := range trades {
		tradeVals[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":            structpb.NewStringValue(t.ID),
			"buy_order_id":  structpb.NewNumberValue(float64(t.BuyOrderID)),
			"sell_order_id": structpb.NewNumberValue(float64(t.SellOrderID)),
			"price":         structpb.NewStringValue(t.Price.String()),
			"quantity":      structpb.NewNumberValue(float64(t.Quantity)),
		}})
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"order_id":  structpb.NewNumberValue(float64(o.ID)),
		"status":    structpb.NewStringValue(string(o.Status)),
		"remaining": structpb.NewNumberValue(float64(o.Remaining())),
		"trades":    structpb.NewListValue(&structpb.ListValue{Values: tradeVals}),
	}}, nil
}

// GetOrderbook ignores the request body and returns the top-of-book
// snapshot as {symbol, bids: [{price, quantity}], asks: [...]}.
func (s *Server) GetOrderbook(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	snap := s.eng.GetOrderbook(ctx)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"symbol": structpb.NewStringValue(snap.Symbol),
		"bids":   structpb.NewListValue(levelsToList(snap.Bids)),
		"asks":   structpb.NewListValue(levelsToList(snap.Asks)),
	}}, nil
}

func levelsToList(levels []domain.PriceLevelView) *structpb.ListValue {
	vals := make([]*structpb.Value, len(levels))
	for i, l := range levels {
		vals[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"price":    structpb.NewStringValue(l.Price.String()),
			"quantity": structpb.NewNumberValue(float64(l.Quantity)),
		}})
	}
	return &structpb.ListValue{Values: vals}
}
