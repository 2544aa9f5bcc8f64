package domain

import (
	"fmt"
	"strconv"
)

// Customer — клиент, на которого оформляются заказы.
type Customer struct {
	ID    int64
	Name  string
	Phone string
}

// Item — позиция каталога. Price является авторитетной ценой.
type Item struct {
	ID    int64
	Name  string
	Price float64
}

// Order описывает заголовок заказа.
type Order struct {
	ID         int64
	CustomerID int64
	Notes      string
	// Timestamp — секунды с начала эпохи, выставляется один раз при создании.
	Timestamp int64
}

// OrderLine связывает заказ с позицией каталога. Цена на строке не хранится.
type OrderLine struct {
	ID      int64
	OrderID int64
	ItemID  int64
}

// RequestedLine — строка заказа в том виде, в каком её прислал клиент.
type RequestedLine struct {
	Name  string
	Price float64
}

// OrderViewItem — строка заказа с текущей ценой из каталога.
type OrderViewItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OrderView — заказ вместе с разрешёнными строками (live join, не снапшот).
type OrderView struct {
	ID         int64
	CustomerID int64
	Notes      string
	Timestamp  int64
	Items      []OrderViewItem
}

// OrderResult возвращается после создания или обновления заказа.
type OrderResult struct {
	ID               int64
	Message          string
	PriceAdjustments []string
}

// PriceAdjustmentNote формирует сообщение о замене присланной цены на цену каталога.
func PriceAdjustmentNote(name string, submitted, authoritative float64) string {
	return fmt.Sprintf("Item '%s' price updated from %s to %s.", name, FormatPrice(submitted), FormatPrice(authoritative))
}

// FormatPrice печатает цену в кратчайшей точной форме: 5, 10, 9.99.
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
