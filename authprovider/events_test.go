package authprovider_test

import (
	"testing"

	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	bus := authprovider.NewBus()
	var got []string
	bus.Subscribe(func(authprovider.Event) { got = append(got, "a") })
	bus.Subscribe(func(authprovider.Event) { got = append(got, "b") })

	bus.Publish(authprovider.Event{Type: authprovider.EventSignedOut})
	require.Equal(t, []string{"a", "b"}, got)
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := authprovider.NewBus()
	calls := 0
	sub := bus.Subscribe(func(authprovider.Event) { calls++ })
	require.Equal(t, 1, bus.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	require.Equal(t, 0, bus.Len())

	bus.Publish(authprovider.Event{Type: authprovider.EventSignedOut})
	require.Zero(t, calls)
}

func TestBus_HandlerMayUnsubscribeItself(t *testing.T) {
	bus := authprovider.NewBus()
	var sub authprovider.Subscription
	calls := 0
	sub = bus.Subscribe(func(authprovider.Event) {
		calls++
		sub.Unsubscribe()
	})

	bus.Publish(authprovider.Event{Type: authprovider.EventSignedOut})
	bus.Publish(authprovider.Event{Type: authprovider.EventSignedOut})
	require.Equal(t, 1, calls)
}
