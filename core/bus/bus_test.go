package bus

import (
	"testing"

	"github.com/voxshell/voxshell-core/core/events"
)

func TestPublishDeliversToMatchingSubscribersOnly(t *testing.T) {
	eventBus := New()

	stateChanges := []string{}
	eventBus.Subscribe(events.KindSessionStateChanged, func(event events.Event) {
		stateChanges = append(stateChanges, event.(events.SessionStateChanged).State)
	})
	moods := 0
	eventBus.Subscribe(events.KindMoodChanged, func(events.Event) { moods++ })

	eventBus.Publish(events.NewSessionStateChanged("listening"))
	eventBus.Publish(events.NewSessionStateChanged("thinking"))

	if len(stateChanges) != 2 || stateChanges[1] != "thinking" {
		t.Fatalf("expected both state changes, got %v", stateChanges)
	}
	if moods != 0 {
		t.Fatalf("expected no mood deliveries, got %d", moods)
	}
}

func TestSubscribeAllSeesEveryKind(t *testing.T) {
	eventBus := New()

	kinds := []events.Kind{}
	eventBus.SubscribeAll(func(event events.Event) {
		kinds = append(kinds, event.Kind())
	})

	eventBus.Publish(events.NewMoodChanged("happy"))
	eventBus.Publish(events.NewPlaybackStarted())

	if len(kinds) != 2 || kinds[0] != events.KindMoodChanged || kinds[1] != events.KindPlaybackStarted {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	eventBus := New()

	delivered := 0
	subscription := eventBus.Subscribe(events.KindMoodChanged, func(events.Event) { delivered++ })

	eventBus.Publish(events.NewMoodChanged("happy"))
	subscription.Unsubscribe()
	subscription.Unsubscribe()
	eventBus.Publish(events.NewMoodChanged("sad"))

	if delivered != 1 {
		t.Fatalf("expected one delivery, got %d", delivered)
	}
}

func TestPanickingHandlerDoesNotAbortDelivery(t *testing.T) {
	eventBus := New()

	eventBus.Subscribe(events.KindMoodChanged, func(events.Event) {
		panic("handler bug")
	})
	delivered := 0
	eventBus.Subscribe(events.KindMoodChanged, func(events.Event) { delivered++ })

	eventBus.Publish(events.NewMoodChanged("happy"))

	if delivered != 1 {
		t.Fatalf("expected delivery to continue past the panic, got %d", delivered)
	}
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	eventBus := New()

	order := []int{}
	eventBus.Subscribe(events.KindMoodChanged, func(events.Event) { order = append(order, 1) })
	eventBus.Subscribe(events.KindMoodChanged, func(events.Event) { order = append(order, 2) })
	eventBus.SubscribeAll(func(events.Event) { order = append(order, 3) })

	eventBus.Publish(events.NewMoodChanged("calm"))

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected delivery order %v", order)
	}
}
