package models

// Plan представляет тарифный план пользователя
type Plan struct {
	Title string `json:"title"`
	Type  int    `json:"type"`
}
