package model

import "encoding/json"

// OrderRequest is the body of POST /submit_order/. Fields are pointers or raw
// JSON so a missing field can be told apart from an empty or null one.
type OrderRequest struct {
	Name             *string         `json:"name"`
	Address          *string         `json:"address"`
	CreditCardNumber *string         `json:"creditCardNumber"`
	Medicine         json.RawMessage `json:"medicine"`
}

type OrderResponse struct {
	Message     string `json:"message"`
	OrderNumber string `json:"orderNumber"`
}
