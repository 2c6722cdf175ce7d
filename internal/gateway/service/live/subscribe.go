package live

import (
	"context"
	"strings"
)

// Subscribe emits a state event on every change followed by the question,
// feedback and report events published since the previous wake-up. The
// channel closes when ctx ends or the interview exits. Slow readers lose
// the oldest undelivered events.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan *Event, error) {
	id = strings.TrimSpace(id)
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	out := make(chan *Event, 16)

	go func() {
		defer close(out)
		var cursor uint64
		for {
			s.mu.Lock()
			st, ok := s.live[id]
			if !ok || st.ended {
				s.mu.Unlock()
				return
			}
			pending := st.eventsAfterLocked(cursor)
			if n := len(pending); n > 0 {
				cursor = pending[n-1].Seq
			}
			ch := st.changed
			orch := st.orch
			s.mu.Unlock()

			snap := orch.Snapshot()
			pushEvent(out, &Event{Kind: EventState, Snapshot: &snap})
			for i := range pending {
				pushEvent(out, &pending[i])
			}

			select {
			case <-ctx.Done():
				return
			case <-ch:
			}
		}
	}()

	return out, nil
}

func pushEvent(out chan *Event, ev *Event) {
	if ev == nil {
		return
	}
	select {
	case out <- ev:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- ev:
	default:
	}
}
