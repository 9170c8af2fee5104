package checkout

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

const defaultInFlightTTL = 30 * time.Second

// inFlight allows one submission per user at a time. The TTL frees the flag
// if a process dies mid-submit.
type inFlight struct {
	kv   KV
	keys Keyer
	ttl  time.Duration
	logg *logger.Logger
}

func (g *inFlight) acquire(ctx context.Context, userID string) (func(context.Context), error) {
	key := g.keys.InFlightKey(userID)
	ok, err := g.kv.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout guard unavailable")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an order is already being placed")
	}
	return func(ctx context.Context) {
		ctx = context.WithoutCancel(ctx)
		if err := g.kv.Del(ctx, key); err != nil {
			// the flag now holds until the TTL frees it
			logCtx := g.logg.WithField(g.logg.WithError(ctx, err), "inflight_ttl_seconds", int(g.ttl.Seconds()))
			g.logg.Warn(logCtx, "checkout.inflight_release_failed")
		}
	}, nil
}
