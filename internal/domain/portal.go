package domain

// Portal 门户（租户）信息
type Portal struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
}
