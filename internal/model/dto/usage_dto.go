package dto

// UsageValidation 是否还能搜索。无限额度时 remaining 与 limit 均为 -1
type UsageValidation struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	Unlimited bool `json:"unlimited"`
}

// UsageStats 当前窗口内的用量
type UsageStats struct {
	Subject   string `json:"subject"` // user, device
	Tier      string `json:"tier,omitempty"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
	ResetAt   string `json:"resetAt"`
}
