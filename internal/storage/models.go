package storage

import "time"

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	IsAdmin      bool   `json:"is_admin"`
}

type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Deal is one tracked position of a user. The metric columns after
// TargetPercent are derived values written back on each refresh so the
// dashboard can read them without recomputing.
type Deal struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID        uint    `gorm:"index" json:"user_id"`
	Symbol        string  `gorm:"index;not null" json:"symbol"`
	Direction     string  `gorm:"not null;default:'LONG'" json:"direction"` // LONG or SHORT
	Quantity      int64   `gorm:"not null" json:"quantity"`
	EntryPrice    float64 `gorm:"not null" json:"entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	TargetPercent float64 `gorm:"default:10" json:"target_percent"`
	Status        string  `gorm:"not null;default:'ACTIVE'" json:"status"` // ACTIVE or CLOSED

	EntryDate time.Time  `json:"entry_date"`
	ExitDate  *time.Time `json:"exit_date"`
	ExitPrice float64    `json:"exit_price"`

	Invested     float64 `json:"invested"`
	CurrentValue float64 `json:"current_value"`
	PnL          float64 `gorm:"column:pnl" json:"pnl"`
	PnLPercent   float64 `gorm:"column:pnl_percent" json:"pnl_percent"`
	TargetPrice  float64 `json:"target_price"`
	Change7d     float64 `json:"change_7d"`
	Change30d    float64 `json:"change_30d"`

	QuoteStale     bool       `json:"quote_stale"`
	QuoteCheckedAt *time.Time `json:"quote_checked_at"`

	OrderID           string `json:"order_id"`
	TakeProfitOrderID string `json:"take_profit_order_id"`
}

type Signal struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Symbol      string  `gorm:"index;not null" json:"symbol"`
	Direction   string  `gorm:"not null;default:'LONG'" json:"direction"`
	EntryPrice  float64 `gorm:"not null" json:"entry_price"`
	TargetPrice float64 `json:"target_price"`
	StopLoss    float64 `json:"stop_loss"`
	Status      string  `gorm:"not null;default:'ACTIVE'" json:"status"`
	Notes       string  `gorm:"type:text" json:"notes"`
	Commentary  string  `gorm:"type:text" json:"commentary"`

	ClosePrice float64    `json:"close_price"`
	ClosedAt   *time.Time `json:"closed_at"`
}

type PortfolioSnapshot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TotalInvested float64 `json:"total_invested"`
	TotalCurrent  float64 `json:"total_current"`
	TotalPnL      float64 `gorm:"column:total_pnl" json:"total_pnl"`
	ReturnPercent float64 `json:"return_percent"`
	ActiveCount   int     `json:"active_count"`
	SummaryJSON   string  `gorm:"type:text" json:"summary_json"`
}
