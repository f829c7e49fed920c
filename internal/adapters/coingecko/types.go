package coingecko

// DTOs raw de la API de CoinGecko. Solo se usan dentro de este paquete.
// Los punteros distinguen "campo ausente" de cero.

// simplePriceResponse es la respuesta de GET /simple/price: { "<asset>": { "usd": n } }.
type simplePriceResponse map[string]struct {
	USD *float64 `json:"usd"`
}

// historyResponse es la respuesta de GET /coins/{id}/history.
type historyResponse struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	MarketData *struct {
		CurrentPrice *struct {
			USD *float64 `json:"usd"`
		} `json:"current_price"`
	} `json:"market_data"`
}
