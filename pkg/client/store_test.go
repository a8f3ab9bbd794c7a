package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreNotifiesSubscribersOfKind(t *testing.T) {
	store := NewStore(time.Minute)
	var events, ideas []Change
	unsubscribe := store.Subscribe(KindEvent, func(c Change) { events = append(events, c) })
	store.Subscribe(KindIdea, func(c Change) { ideas = append(ideas, c) })

	store.Put(KindEvent, "e1", "payload")
	store.Invalidate(KindEvent, "e1")
	unsubscribe()
	store.Put(KindEvent, "e2", "ignored")

	assert.Equal(t, []Change{
		{Kind: KindEvent, ID: "e1", Op: OpPut},
		{Kind: KindEvent, ID: "e1", Op: OpInvalidate},
	}, events)
	assert.Empty(t, ideas)
}

func TestStoreRememberIsSilent(t *testing.T) {
	store := NewStore(time.Minute)
	called := false
	store.Subscribe(KindHall, func(Change) { called = true })

	store.remember(KindHall, "h1", 42)
	value, ok := store.Get(KindHall, "h1")
	require.True(t, ok)
	assert.Equal(t, 42, value)
	assert.False(t, called)
}

func TestStoreInvalidateKindKeepsOtherKinds(t *testing.T) {
	store := NewStore(0)
	store.Put(KindClub, "c1", 1)
	store.Put(KindClub, "c2", 2)
	store.Put(KindHall, "h1", 3)

	var got []Change
	store.Subscribe(KindClub, func(c Change) { got = append(got, c) })
	store.InvalidateKind(KindClub)

	_, ok := store.Get(KindClub, "c1")
	assert.False(t, ok)
	_, ok = store.Get(KindClub, "c2")
	assert.False(t, ok)
	_, ok = store.Get(KindHall, "h1")
	assert.True(t, ok)
	assert.Equal(t, []Change{{Kind: KindClub, Op: OpInvalidate}}, got)
}
