// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package db

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/go-core-stack/keypool/errors"
)

func Test_MemoryCollection(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryCollection()

	if err := col.SetKeyType(reflect.TypeOf(&testKey{})); err != nil {
		t.Fatalf("failed to set key type: %s", err)
	}
	events := []string{}
	_ = col.Watch(ctx, nil, func(op string, wKey any) {
		events = append(events, op+":"+wKey.(*testKey).Name)
	})

	key := &testKey{Name: "key-1"}
	if err := col.InsertOne(ctx, key, nil); !errors.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument without data, got %v", err)
	}
	if err := col.InsertOne(ctx, key, &testData{Desc: "first", Count: 1}); err != nil {
		t.Fatalf("failed to insert entry: %s", err)
	}
	if err := col.InsertOne(ctx, key, &testData{Desc: "again"}); !errors.IsAlreadyExists(err) {
		t.Errorf("expected already exists on duplicate insert, got %v", err)
	}

	if err := col.UpdateOne(ctx, &testKey{Name: "missing"}, &testData{Desc: "x"}, false); !errors.IsNotFound(err) {
		t.Errorf("expected not found updating missing entry, got %v", err)
	}
	if err := col.UpdateOne(ctx, key, &testData{Count: 5}, false); err != nil {
		t.Errorf("failed to update entry: %s", err)
	}
	if err := col.UpdateOne(ctx, &testKey{Name: "key-2"}, &testData{Desc: "second"}, true); err != nil {
		t.Errorf("failed to upsert entry: %s", err)
	}

	// update sets only the given fields
	data := &testData{}
	if err := col.FindOne(ctx, key, data); err != nil {
		t.Fatalf("failed to find entry: %s", err)
	}
	if data.Desc != "first" || data.Count != 5 {
		t.Errorf("unexpected entry %+v", data)
	}
	if err := col.FindOne(ctx, &testKey{Name: "missing"}, data); !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	list := []testObject{}
	if err := col.FindMany(ctx, nil, &list); err != nil {
		t.Fatalf("failed to list entries: %s", err)
	}
	if len(list) != 2 || list[0].Key.Name != "key-1" || list[1].Key.Name != "key-2" {
		t.Errorf("unexpected entries %+v", list)
	}
	if err := col.FindMany(ctx, nil, list); !errors.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument for non pointer list, got %v", err)
	}

	if count, _ := col.Count(ctx, nil); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	if err := col.DeleteOne(ctx, key); err != nil {
		t.Errorf("failed to delete entry: %s", err)
	}
	if err := col.DeleteOne(ctx, key); !errors.IsNotFound(err) {
		t.Errorf("expected not found deleting again, got %v", err)
	}
	if n, err := col.DeleteMany(ctx, bson.D{}); err != nil || n != 1 {
		t.Errorf("expected 1 entry deleted, got %d, %v", n, err)
	}
	if _, err := col.DeleteMany(ctx, nil); !errors.IsNotFound(err) {
		t.Errorf("expected not found deleting from empty collection, got %v", err)
	}

	want := []string{
		MongoAddOp + ":key-1",
		MongoUpdateOp + ":key-1",
		MongoAddOp + ":key-2",
		MongoDeleteOp + ":key-1",
		MongoDeleteOp + ":key-2",
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("unexpected events %v, want %v", events, want)
	}
}

func Test_MemoryCollectionWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	col := NewMemoryCollection()
	if err := col.SetKeyType(reflect.TypeOf(&testKey{})); err != nil {
		t.Fatalf("failed to set key type: %s", err)
	}

	var mu sync.Mutex
	events := []string{}
	if err := col.Watch(ctx, nil, func(op string, wKey any) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, op+":"+wKey.(*testKey).Name)
	}); err != nil {
		t.Fatalf("failed to watch: %s", err)
	}
	if err := col.Watch(ctx, nil, nil); !errors.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument without callback, got %v", err)
	}

	bg := context.Background()
	if err := col.InsertOne(bg, &testKey{Name: "before"}, &testData{Desc: "x"}); err != nil {
		t.Fatalf("failed to insert entry: %s", err)
	}
	cancel()
	if err := col.InsertOne(bg, &testKey{Name: "after"}, &testData{Desc: "y"}); err != nil {
		t.Fatalf("failed to insert entry: %s", err)
	}

	// the watcher is dropped once the cancellation is observed
	mc := col.(*memCollection)
	deadline := time.Now().Add(2 * time.Second)
	for mc.watcherCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher still registered after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := col.DeleteOne(bg, &testKey{Name: "before"}); err != nil {
		t.Fatalf("failed to delete entry: %s", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []string{MongoAddOp + ":before"}; !reflect.DeepEqual(events, want) {
		t.Errorf("unexpected events %v, want %v", events, want)
	}
}
