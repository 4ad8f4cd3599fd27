package models

// CountryRate — начисление за подтверждённый аккаунт по коду страны.
type CountryRate struct {
	Country string  `json:"country"`
	Amount  float64 `json:"amount"`
}
