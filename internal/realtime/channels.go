package realtime

import "fmt"

// Каналы ленты изменений. Каждое событие публикуется дважды: в канал
// конкретного заказа (подписка клиента) и в канал заведения (подписка кухни).

func OrderChannel(orderID string) string {
	return fmt.Sprintf("orders:order:%s", orderID)
}

func VenueChannel(venueID string) string {
	return fmt.Sprintf("orders:venue:%s", venueID)
}
