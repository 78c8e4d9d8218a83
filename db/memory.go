// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Initial reference and motivation taken from
// https://gitlab.com/project-emco/core/emco-base/-/blob/main/src/orchestrator/pkg/infra/db

package db

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/go-core-stack/keypool/errors"
)

// memCollection is an in memory StoreCollection, documents are kept
// as bson and watchers are notified synchronously after every change.
// Filters are not supported, every document matches.
type memCollection struct {
	mu       sync.Mutex
	order    []string
	docs     map[string]bson.M
	keys     map[string][]byte
	keyType  reflect.Type
	watchers []*memWatcher
}

// memWatcher is a callback registered until its context is done
type memWatcher struct {
	ctx context.Context
	cb  WatchCallbackfn
}

// NewMemoryCollection creates an empty collection held in memory, for
// deployments running without a database server
func NewMemoryCollection() StoreCollection {
	return &memCollection{
		docs: map[string]bson.M{},
		keys: map[string][]byte{},
	}
}

var _ StoreCollection = (*memCollection)(nil)

func (c *memCollection) SetKeyType(keyType reflect.Type) error {
	if keyType.Kind() != reflect.Ptr {
		return errors.Wrap(errors.InvalidArgument, "key type is not a pointer")
	}
	c.keyType = keyType
	return nil
}

func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *memCollection) notify(op string, raw []byte) {
	c.mu.Lock()
	watchers := slices.Clone(c.watchers)
	keyType := c.keyType
	c.mu.Unlock()
	for _, w := range watchers {
		if w.ctx.Err() != nil {
			continue
		}
		var key any = &bson.M{}
		if keyType != nil {
			key = reflect.New(keyType.Elem()).Interface()
		}
		if err := bson.Unmarshal(raw, key); err != nil {
			// keys are validated by the writer, skip what the watcher
			// cannot decode
			continue
		}
		w.cb(op, key)
	}
}

func (c *memCollection) InsertOne(ctx context.Context, key any, data any) error {
	if data == nil || key == nil {
		return errors.Wrap(errors.InvalidArgument, "db Insert error: key and data are required")
	}
	raw, err := bson.Marshal(key)
	if err != nil {
		return err
	}
	doc, err := toM(data)
	if err != nil {
		return err
	}
	id := string(raw)
	c.mu.Lock()
	if _, ok := c.docs[id]; ok {
		c.mu.Unlock()
		return errors.Wrap(errors.AlreadyExists, "duplicate key")
	}
	c.docs[id] = doc
	c.keys[id] = raw
	c.order = append(c.order, id)
	c.mu.Unlock()
	c.notify(MongoAddOp, raw)
	return nil
}

func (c *memCollection) UpdateOne(ctx context.Context, key any, data any, upsert bool) error {
	if data == nil || key == nil {
		return errors.Wrap(errors.InvalidArgument, "db Update error: key and data are required")
	}
	raw, err := bson.Marshal(key)
	if err != nil {
		return err
	}
	upd, err := toM(data)
	if err != nil {
		return err
	}
	id := string(raw)
	op := MongoUpdateOp
	c.mu.Lock()
	doc, ok := c.docs[id]
	if !ok {
		if !upsert {
			c.mu.Unlock()
			return errors.Wrap(errors.NotFound, "No Document found")
		}
		doc = bson.M{}
		c.docs[id] = doc
		c.keys[id] = raw
		c.order = append(c.order, id)
		op = MongoAddOp
	}
	for k, v := range upd {
		doc[k] = v
	}
	c.mu.Unlock()
	c.notify(op, raw)
	return nil
}

func (c *memCollection) FindOne(ctx context.Context, key any, data any) error {
	raw, err := bson.Marshal(key)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[string(raw)]
	if !ok {
		return errors.Wrap(errors.NotFound, "No Document found")
	}
	out, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(out, data)
}

func (c *memCollection) FindMany(ctx context.Context, filter any, data any, opts ...any) error {
	if len(opts) != 0 {
		return errors.Wrap(errors.InvalidArgument, "find options not supported by memory collection")
	}
	list := reflect.ValueOf(data)
	if list.Kind() != reflect.Ptr || list.Elem().Kind() != reflect.Slice {
		return errors.Wrapf(errors.InvalidArgument, "FindMany expects pointer to slice, got %T", data)
	}
	list = list.Elem()
	list.SetLen(0)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		doc := bson.M{"_id": bson.Raw(c.keys[id])}
		for k, v := range c.docs[id] {
			doc[k] = v
		}
		out, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		elem := reflect.New(list.Type().Elem())
		if err := bson.Unmarshal(out, elem.Interface()); err != nil {
			return err
		}
		list.Set(reflect.Append(list, elem.Elem()))
	}
	return nil
}

func (c *memCollection) Count(ctx context.Context, filter any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.docs)), nil
}

func (c *memCollection) DeleteOne(ctx context.Context, key any) error {
	raw, err := bson.Marshal(key)
	if err != nil {
		return err
	}
	id := string(raw)
	c.mu.Lock()
	if _, ok := c.docs[id]; !ok {
		c.mu.Unlock()
		return errors.Wrap(errors.NotFound, "No Document found")
	}
	delete(c.docs, id)
	delete(c.keys, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.notify(MongoDeleteOp, raw)
	return nil
}

func (c *memCollection) DeleteMany(ctx context.Context, filter any) (int64, error) {
	c.mu.Lock()
	removed := make([][]byte, 0, len(c.order))
	for _, id := range c.order {
		removed = append(removed, c.keys[id])
	}
	c.order = nil
	c.docs = map[string]bson.M{}
	c.keys = map[string][]byte{}
	c.mu.Unlock()
	if len(removed) == 0 {
		return 0, errors.Wrap(errors.NotFound, "No matching entries found to delete")
	}
	for _, raw := range removed {
		c.notify(MongoDeleteOp, raw)
	}
	return int64(len(removed)), nil
}

// Watch registers cb until ctx is done, no callback is made once ctx
// is done
func (c *memCollection) Watch(ctx context.Context, filter any, cb WatchCallbackfn) error {
	if cb == nil {
		return errors.Wrap(errors.InvalidArgument, "db Watch error: callback is required")
	}
	w := &memWatcher{ctx: ctx, cb: cb}
	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			c.mu.Lock()
			defer c.mu.Unlock()
			c.watchers = slices.DeleteFunc(c.watchers, func(e *memWatcher) bool {
				return e == w
			})
		}()
	}
	return nil
}

func (c *memCollection) watcherCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}
