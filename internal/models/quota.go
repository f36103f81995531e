package models

// QuotaStatus summarizes a user's standing against the free-tier upload cap
type QuotaStatus struct {
	IsPro         bool `json:"is_pro"`
	RecentUploads int  `json:"recent_uploads"`
	Limit         int  `json:"limit"`
	Remaining     int  `json:"remaining"`
	LimitReached  bool `json:"limit_reached"`
	WindowDays    int  `json:"window_days"`
}
