// Package recordstore is a path addressed JSON document store with live
// subscriptions. Paths look like "orders/{userId}/{orderId}".
package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

// Snapshot is the state visible at a path: the record itself, otherwise an
// object of its direct children, otherwise absent.
type Snapshot struct {
	Path   string
	Exists bool
	Value  json.RawMessage
}

// Decode unmarshals the snapshot value into v.
func (s Snapshot) Decode(v any) error {
	if !s.Exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	}
	return json.Unmarshal(s.Value, v)
}

type repository interface {
	Upsert(ctx context.Context, path string, value []byte) error
	Find(ctx context.Context, path string) (*Record, error)
	ListChildren(ctx context.Context, parent string) ([]Record, error)
}

// Notifier propagates a change at path to subscribers.
type Notifier interface {
	Notify(ctx context.Context, path string)
}

// Params groups the dependencies of New.
type Params struct {
	Repo   repository
	Logger *logger.Logger
}

// Store reads, writes and watches records.
type Store struct {
	repo     repository
	hub      *hub
	notifier Notifier
	logg     *logger.Logger
}

// New builds a store that notifies subscribers in this process.
func New(params Params) (*Store, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("record repository required")
	}
	s := &Store{repo: params.Repo, logg: params.Logger}
	s.hub = newHub(s.snapshot, params.Logger)
	s.notifier = localNotifier{hub: s.hub}
	return s, nil
}

// UseNotifier routes change notifications through n, e.g. a Redis relay.
func (s *Store) UseNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// Write upserts value at path and notifies subscribers of the path and its ancestors.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	clean, err := normalize(path)
	if err != nil {
		return err
	}
	payload, err := encode(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "record value must be valid JSON")
	}
	if err := s.repo.Upsert(ctx, clean, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record store write failed")
	}
	s.notifier.Notify(ctx, clean)
	return nil
}

// Read returns the snapshot at path.
func (s *Store) Read(ctx context.Context, path string) (Snapshot, error) {
	clean, err := normalize(path)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, clean)
}

// Children returns the direct children of path keyed by their last segment.
func (s *Store) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	clean, err := normalize(path)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListChildren(ctx, clean)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record store read failed")
	}
	out := make(map[string]json.RawMessage, len(recs))
	for _, rec := range recs {
		out[baseOf(rec.Path)] = json.RawMessage(rec.Value)
	}
	return out, nil
}

// Subscribe calls fn with the current snapshot and then once per change at
// path or below. Each call is a total replacement of the previous one.
// The subscription ends when ctx is done or the returned function is called.
func (s *Store) Subscribe(ctx context.Context, path string, fn func(Snapshot)) (Unsubscribe, error) {
	clean, err := normalize(path)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription callback required")
	}
	return s.hub.subscribe(ctx, clean, fn), nil
}

// Broadcast notifies local subscribers of a change made elsewhere.
func (s *Store) Broadcast(path string) {
	clean, err := normalize(path)
	if err != nil {
		return
	}
	s.hub.publish(clean)
}

func (s *Store) snapshot(ctx context.Context, path string) (Snapshot, error) {
	rec, err := s.repo.Find(ctx, path)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record store read failed")
	}
	if rec != nil {
		return Snapshot{Path: path, Exists: true, Value: json.RawMessage(rec.Value)}, nil
	}

	children, err := s.Children(ctx, path)
	if err != nil {
		return Snapshot{}, err
	}
	if len(children) == 0 {
		return Snapshot{Path: path}, nil
	}
	payload, err := json.Marshal(children)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Exists: true, Value: payload}, nil
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("invalid json")
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return nil, fmt.Errorf("invalid json")
		}
		return v, nil
	default:
		return json.Marshal(value)
	}
}

type localNotifier struct {
	hub *hub
}

func (n localNotifier) Notify(_ context.Context, path string) {
	n.hub.publish(path)
}
