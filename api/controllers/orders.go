package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodorder-backend/api/responses"
	"github.com/angelmondragon/foodorder-backend/internal/orders"
	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

const (
	eventOrder    = "order"
	eventNotFound = "not_found"
	eventOrders   = "orders"
)

// KeepAlive is the comment ping interval of event streams.
var KeepAlive = 15 * time.Second

func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), userID, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func OrderRoute(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Route(r.Context(), userID, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type streamFrame struct {
	event string
	data  any
}

// OrderStream pushes the order, its status display and tracking view on
// every change. Every frame replaces the previous one.
func OrderStream(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := chi.URLParam(r, "orderId")
		serveStream(w, r, logg, func(ctx context.Context, push func(streamFrame)) (recordstore.Unsubscribe, error) {
			return svc.WatchOrder(ctx, userID, orderID, func(ev orders.OrderEvent) {
				if ev.NotFound {
					push(streamFrame{event: eventNotFound, data: map[string]string{"order_id": orderID}})
					return
				}
				push(streamFrame{event: eventOrder, data: ev})
			})
		})
	}
}

func OrdersStream(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveStream(w, r, logg, func(ctx context.Context, push func(streamFrame)) (recordstore.Unsubscribe, error) {
			return svc.WatchList(ctx, userID, func(view *orders.ListView) {
				push(streamFrame{event: eventOrders, data: view})
			})
		})
	}
}

// serveStream subscribes, then writes frames from the request goroutine
// until the client goes away. Only the newest pending frame is kept, so a
// slow client skips intermediate states.
func serveStream(w http.ResponseWriter, r *http.Request, logg *logger.Logger, watch func(context.Context, func(streamFrame)) (recordstore.Unsubscribe, error)) {
	ctx := r.Context()
	pending := make(chan streamFrame, 1)
	push := func(f streamFrame) {
		for {
			select {
			case pending <- f:
				return
			default:
			}
			select {
			case <-pending:
			default:
			}
		}
	}

	unsubscribe, err := watch(ctx, push)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	defer unsubscribe()

	stream, err := responses.OpenStream(w)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-pending:
			if err := stream.Send(frame.event, frame.data); err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "stream.write_failed")
				}
				return
			}
		case <-ticker.C:
			if err := stream.Ping(); err != nil {
				return
			}
		}
	}
}
