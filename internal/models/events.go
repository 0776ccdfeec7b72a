package models

import (
	"encoding/json"
	"fmt"
)

// EventType различает события ленты изменений по таблице заказов.
type EventType string

const (
	EventOrderInserted EventType = "INSERT"
	EventOrderUpdated  EventType = "UPDATE"
)

// Event - типизированное событие ленты изменений: вставка или обновление
// заказа вместе с полной изменённой строкой. Сырые полезные нагрузки
// разбираются в Event один раз на границе подписки, дальше потребители
// работают только с типизированным значением.
type Event struct {
	Type  EventType `json:"type"`
	Order Order     `json:"order"`
}

// DecodeEvent разбирает и проверяет сырое сообщение ленты изменений.
func DecodeEvent(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal feed event: %w", err)
	}
	if event.Type != EventOrderInserted && event.Type != EventOrderUpdated {
		return Event{}, fmt.Errorf("unknown feed event type %q", event.Type)
	}
	if event.Order.ID == "" {
		return Event{}, fmt.Errorf("feed event has no order id")
	}
	if !event.Order.Status.Valid() {
		return Event{}, fmt.Errorf("feed event has invalid status %q", event.Order.Status)
	}
	return event, nil
}
