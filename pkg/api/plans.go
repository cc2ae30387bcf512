package api

// PlanResponse представляет один тарифный план подписки
type PlanResponse struct {
	Title string `json:"title"`
	Type  int    `json:"type"`
}

// SubscriptionResponse представляет подписку пользователя
type SubscriptionResponse struct {
	Plans []PlanResponse `json:"plans"`
}
