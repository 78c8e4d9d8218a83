// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Initial reference and motivation taken from
// https://gitlab.com/project-emco/core/emco-base/-/blob/main/src/orchestrator/pkg/infra/db

package db

import (
	"context"
	"reflect"
)

// WatchCallbackfn is invoked for every change observed on a collection
// with the operation type and the decoded document key
type WatchCallbackfn func(op string, wKey any)

// StoreCollection is a collection of keyed documents
type StoreCollection interface {
	// Set KeyType for the collection, used to decode keys passed to
	// the watch callback, only pointer key types are supported
	SetKeyType(keyType reflect.Type) error

	// inserts one entry with given key and data to the collection
	InsertOne(ctx context.Context, key any, data any) error

	// updates one entry, inserting it when upsert is set
	UpdateOne(ctx context.Context, key any, data any, upsert bool) error

	// find one entry for the given key decoding it into data
	FindOne(ctx context.Context, key any, data any) error

	// find all entries matching filter decoding them into the slice
	// pointed to by data
	FindMany(ctx context.Context, filter any, data any, opts ...any) error

	// count of entries matching filter
	Count(ctx context.Context, filter any) (int64, error)

	// remove the entry with the given key
	DeleteOne(ctx context.Context, key any) error

	// remove all entries matching filter
	DeleteMany(ctx context.Context, filter any) (int64, error)

	// watch for changes on the collection until ctx is closed
	Watch(ctx context.Context, filter any, cb WatchCallbackfn) error
}

type Store interface {
	// Name of the data store
	Name() string

	// Get the collection with given name in the data store
	GetCollection(col string) StoreCollection
}

type StoreClient interface {
	// Get the Data Store interface given the client interface
	GetDataStore(dbName string) Store

	// Get the collection inside the database with the given name
	GetCollection(dbName, col string) StoreCollection

	// Health Check, if the Store is connectable and healthy
	// returns the status of health of the server by means of
	// error if error is nil the health of the DB store can be
	// considered healthy
	HealthCheck(ctx context.Context) error

	// Disconnect closes the connections held by the client
	Disconnect(ctx context.Context) error
}
