package domain

// Prediction is the recommendation label returned by the prediction endpoint.
// TokenToBuy is nil when the outlook is negative.
type Prediction struct {
	Prediction string  `json:"prediction"`
	TokenToBuy *string `json:"tokenToBuy"`
}
