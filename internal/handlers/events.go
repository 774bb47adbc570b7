package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
)

// EventsHandler ретранслирует темы changebus в Server-Sent Events.
type EventsHandler struct {
	bus    *changebus.Bus
	logger *zap.SugaredLogger
}

func NewEventsHandler(bus *changebus.Bus, logger *zap.SugaredLogger) *EventsHandler {
	return &EventsHandler{bus: bus, logger: logger}
}

// relay подписывает клиентский канал на тему. Отправка неблокирующая:
// при полном буфере событие для этого клиента теряется, шина не ждёт.
func relay[P any](b *changebus.Bus, t changebus.Topic[P], ch chan<- []byte, logger *zap.SugaredLogger) func() {
	return changebus.Subscribe(b, t, func(p P) {
		payload, err := json.Marshal(p)
		if err != nil {
			logger.Warnw("sse marshal failed", "topic", t.Name(), "error", err)
			return
		}
		select {
		case ch <- []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", t.Name(), payload)):
		default:
		}
	})
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan []byte, 64)
	unsubs := []func(){
		relay(h.bus, changebus.ReceiptsChangedTopic, ch, h.logger),
		relay(h.bus, changebus.UsersChangedTopic, ch, h.logger),
		relay(h.bus, changebus.SettingsChangedTopic, ch, h.logger),
		relay(h.bus, changebus.HistoricalDataUpdatedTopic, ch, h.logger),
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
