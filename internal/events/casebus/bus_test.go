package casebus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamacare/triagedesk/internal/domain/model"
	"github.com/mamacare/triagedesk/internal/events/casebus"
)

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	bus := casebus.New()
	caseID := uuid.New()

	phw, cancelPHW := bus.Subscribe(caseID, casebus.RolePHW)
	defer cancelPHW()
	specialist, cancelSpecialist := bus.Subscribe(caseID, casebus.RoleSpecialist)
	defer cancelSpecialist()

	bus.Publish(casebus.NewStatusUpdate(caseID, model.CaseStatusEscalated))

	select {
	case ev := <-phw.Events():
		assert.Equal(t, casebus.EventStatusUpdate, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("phw subscriber did not receive event")
	}

	select {
	case ev := <-specialist.Events():
		assert.Equal(t, casebus.EventStatusUpdate, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("specialist subscriber did not receive event")
	}
}

func TestPublish_ConcurrentAdviceEachFiresExactlyOneEvent(t *testing.T) {
	bus := casebus.New()
	caseID := uuid.New()

	sub, cancel := bus.Subscribe(caseID, casebus.RolePHW)
	defer cancel()

	const n = 10
	received := make([]casebus.Event, 0, n)
	done := make(chan struct{})

	go func() {
		for ev := range sub.Events() {
			received = append(received, ev)
			if len(received) == n {
				close(done)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bus.Publish(casebus.NewAdvicePush(caseID, &model.Advice{ID: uuid.New()}))
		}(i)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %d events, got %d", n, len(received))
	}

	for _, ev := range received {
		assert.Equal(t, casebus.EventAdvicePush, ev.Type)
	}
}

func TestSubscribe_FullBufferDisconnectsRatherThanBlocks(t *testing.T) {
	bus := casebus.New()
	caseID := uuid.New()

	sub, cancel := bus.Subscribe(caseID, casebus.RolePHW)
	defer cancel()

	// Flood well past the subscriber buffer without draining; the bus
	// must drop the slow subscriber rather than block the publisher.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(casebus.NewStatusUpdate(caseID, model.CaseStatusAnalyzed))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	_, ok := <-sub.Events()
	require.False(t, channelStillOpenAfterDrain(sub))
	_ = ok
}

func channelStillOpenAfterDrain(sub *casebus.Subscriber) bool {
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return false
			}
		case <-time.After(50 * time.Millisecond):
			return true
		}
	}
}
