package bridge

import "testing"

func TestAgentEventsReachOnlyMatchingHandlers(t *testing.T) {
	eventBridge := New()

	messages := []string{}
	eventBridge.OnAgentEvent(AgentMessage, func(event AgentEvent) {
		messages = append(messages, event.(Message).Text)
	})
	errors := 0
	eventBridge.OnAgentEvent(AgentError, func(AgentEvent) { errors++ })

	eventBridge.EmitAgentEvent(Message{Role: "assistant", Text: "hi", Final: true})

	if len(messages) != 1 || messages[0] != "hi" {
		t.Fatalf("expected the message handler to fire, got %v", messages)
	}
	if errors != 0 {
		t.Fatalf("expected no error deliveries, got %d", errors)
	}
}

func TestShellActionsReachAdapterHandlers(t *testing.T) {
	eventBridge := New()

	sent := []string{}
	eventBridge.OnShellAction(ActionSendMessage, func(action ShellAction) {
		sent = append(sent, action.(SendMessage).Text)
	})

	eventBridge.DispatchShellAction(SendMessage{Text: "hello"})

	if len(sent) != 1 || sent[0] != "hello" {
		t.Fatalf("expected the action handler to fire, got %v", sent)
	}
}

func TestClearAllSilencesEveryHandler(t *testing.T) {
	eventBridge := New()

	agentDeliveries := 0
	actionDeliveries := 0
	eventBridge.OnAgentEvent(AgentConnected, func(AgentEvent) { agentDeliveries++ })
	eventBridge.OnShellAction(ActionEndSession, func(ShellAction) { actionDeliveries++ })

	eventBridge.ClearAll()
	eventBridge.EmitAgentEvent(Connected{})
	eventBridge.DispatchShellAction(EndSession{})

	if agentDeliveries != 0 || actionDeliveries != 0 {
		t.Fatalf("expected no deliveries after clear, got %d agent and %d action",
			agentDeliveries, actionDeliveries)
	}
}

func TestHandlersRegisteredAfterClearAllStillFire(t *testing.T) {
	eventBridge := New()

	eventBridge.OnAgentEvent(AgentConnected, func(AgentEvent) {
		t.Fatalf("stale handler fired after clear")
	})
	eventBridge.ClearAll()

	delivered := 0
	eventBridge.OnAgentEvent(AgentConnected, func(AgentEvent) { delivered++ })
	eventBridge.EmitAgentEvent(Connected{})

	if delivered != 1 {
		t.Fatalf("expected the fresh handler to fire, got %d", delivered)
	}
}

func TestUnsubscribeIsIdempotentAndSafeAfterClearAll(t *testing.T) {
	eventBridge := New()

	subscription := eventBridge.OnAgentEvent(AgentMood, func(AgentEvent) {})
	eventBridge.ClearAll()
	subscription.Unsubscribe()
	subscription.Unsubscribe()

	var nilSubscription *Subscription
	nilSubscription.Unsubscribe()
}

func TestPanickingHandlerDoesNotAbortDelivery(t *testing.T) {
	eventBridge := New()

	eventBridge.OnAgentEvent(AgentMood, func(AgentEvent) { panic("handler bug") })
	delivered := 0
	eventBridge.OnAgentEvent(AgentMood, func(AgentEvent) { delivered++ })

	eventBridge.EmitAgentEvent(Mood{Mood: "happy"})

	if delivered != 1 {
		t.Fatalf("expected delivery to continue past the panic, got %d", delivered)
	}
}
