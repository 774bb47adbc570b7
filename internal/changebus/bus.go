// Package changebus - синхронная in-process шина уведомлений об изменениях данных.
//
// Обработчики вызываются в порядке подписки в горутине, вызвавшей Emit.
// Обработчик может отписаться или эмитить новые события внутри вызова.
package changebus

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type subscription struct {
	id      uint64
	handler func(any)
}

// Bus - шина событий. Нулевое значение не используется, создавать через New.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
	closed atomic.Bool
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Bus {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bus{subs: make(map[string][]subscription), logger: logger}
}

// Subscribe регистрирует обработчик темы и возвращает функцию отписки.
// Отписка идемпотентна. После Close подписка не регистрируется.
func Subscribe[P any](b *Bus, t Topic[P], handler func(P)) (unsubscribe func()) {
	if b == nil || b.closed.Load() {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t.name] = append(b.subs[t.name], subscription{
		id:      id,
		handler: func(v any) { handler(v.(P)) },
	})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(t.name, id) })
	}
}

// Emit синхронно доставляет payload всем текущим подписчикам темы.
// Паника в обработчике логируется и не мешает остальным. nil-шина допустима.
func Emit[P any](b *Bus, t Topic[P], payload P) {
	if b == nil || b.closed.Load() {
		return
	}
	b.mu.RLock()
	handlers := make([]subscription, len(b.subs[t.name]))
	copy(handlers, b.subs[t.name])
	b.mu.RUnlock()

	for _, s := range handlers {
		b.deliver(t.name, s, payload)
	}
}

func (b *Bus) deliver(topic string, s subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorw("change handler panicked", "topic", topic, "panic", r)
		}
	}()
	s.handler(payload)
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[topic]
	for i, s := range list {
		if s.id == id {
			b.subs[topic] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// SubscriberCount - число активных подписчиков темы.
func SubscriberCount[P any](b *Bus, t Topic[P]) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t.name])
}

// Close снимает все подписки; последующие Emit и Subscribe - no-op.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.mu.Lock()
	b.subs = make(map[string][]subscription)
	b.mu.Unlock()
}
