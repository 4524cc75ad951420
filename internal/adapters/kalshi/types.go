package kalshi

// Tipos crudos de la API REST v2. Se convierten a domain en mapping.go.

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type orderDTO struct {
	OrderID        string `json:"order_id"`
	Ticker         string `json:"ticker"`
	Side           string `json:"side"`
	Status         string `json:"status"`
	RemainingCount int    `json:"remaining_count"`
	YesPrice       int    `json:"yes_price"`
	NoPrice        int    `json:"no_price"`
}

type ordersResponse struct {
	Orders []orderDTO `json:"orders"`
	Cursor string     `json:"cursor"`
}

type positionDTO struct {
	Ticker   string `json:"ticker"`
	Position int    `json:"position"`
}

type positionsResponse struct {
	MarketPositions []positionDTO `json:"market_positions"`
	Cursor          string        `json:"cursor"`
}

type marketDTO struct {
	Ticker    string `json:"ticker"`
	Status    string `json:"status"`
	Result    string `json:"result"`
	YesBid    int    `json:"yes_bid"`
	YesAsk    int    `json:"yes_ask"`
	CloseTime string `json:"close_time"`
}

type marketsResponse struct {
	Markets []marketDTO `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type marketResponse struct {
	Market *marketDTO `json:"market"`
}

type createOrderRequest struct {
	Ticker   string `json:"ticker"`
	Action   string `json:"action"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Count    int    `json:"count"`
	YesPrice int    `json:"yes_price,omitempty"`
	NoPrice  int    `json:"no_price,omitempty"`
}

type createOrderResponse struct {
	Order struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"order"`
}
