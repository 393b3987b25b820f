package db

import "time"

const OrderCollection = "orders"

type OrderModel struct {
	OrderID          string    `bson:"_id"`
	Name             string    `bson:"name"`
	Address          string    `bson:"address"`
	CreditCardNumber string    `bson:"creditCardNumber"` // last 4 digits only
	Medicine         any       `bson:"medicine"`
	OrderNumber      string    `bson:"orderNumber"`
	Timestamp        time.Time `bson:"timestamp"`
}

func (m OrderModel) Id() string { return m.OrderID }

func (m OrderModel) CollectionName() string { return OrderCollection }
