package storage

import (
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Users

func (r *Repository) CreateUser(user *User) error {
	return r.db.Create(user).Error
}

func (r *Repository) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUser(id uint) (*User, error) {
	var user User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Sessions

func (r *Repository) CreateSession(session *Session) error {
	return r.db.Create(session).Error
}

func (r *Repository) GetSession(token string) (*Session, error) {
	var session Session
	if err := r.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Repository) DeleteSession(token string) error {
	return r.db.Where("token = ?", token).Delete(&Session{}).Error
}

func (r *Repository) DeleteExpiredSessions(now time.Time) error {
	return r.db.Where("expires_at < ?", now).Delete(&Session{}).Error
}

// Deals

func (r *Repository) SaveDeal(deal *Deal) error {
	if deal.ID == 0 {
		return r.db.Create(deal).Error
	}
	return r.db.Save(deal).Error
}

func (r *Repository) GetDeal(id uint) (*Deal, error) {
	var deal Deal
	if err := r.db.First(&deal, id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *Repository) ListDeals(userID uint, status string) ([]Deal, error) {
	var deals []Deal
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&deals).Error
	return deals, err
}

func (r *Repository) ListOpenDeals() ([]Deal, error) {
	var deals []Deal
	err := r.db.Where("status = ?", "ACTIVE").Find(&deals).Error
	return deals, err
}

// OpenSymbols returns the distinct symbols across all active deals, so the
// refresher fetches each quote once regardless of how many deals track it.
func (r *Repository) OpenSymbols() ([]string, error) {
	var symbols []string
	err := r.db.Model(&Deal{}).
		Where("status = ?", "ACTIVE").
		Distinct("symbol").Order("symbol").
		Pluck("symbol", &symbols).Error
	return symbols, err
}

func (r *Repository) GetTodayRealizedPnL(userID uint) (float64, error) {
	today := time.Now().Truncate(24 * time.Hour)
	var total float64
	err := r.db.Model(&Deal{}).
		Where("user_id = ? AND status = ? AND exit_date >= ?", userID, "CLOSED", today).
		Select("COALESCE(SUM(pnl), 0)").Scan(&total).Error
	return total, err
}

func (r *Repository) GetTotalRealizedPnL(userID uint) (float64, error) {
	var total float64
	err := r.db.Model(&Deal{}).
		Where("user_id = ? AND status = ?", userID, "CLOSED").
		Select("COALESCE(SUM(pnl), 0)").Scan(&total).Error
	return total, err
}

// Signals

func (r *Repository) SaveSignal(signal *Signal) error {
	if signal.ID == 0 {
		return r.db.Create(signal).Error
	}
	return r.db.Save(signal).Error
}

func (r *Repository) GetSignal(id uint) (*Signal, error) {
	var signal Signal
	if err := r.db.First(&signal, id).Error; err != nil {
		return nil, err
	}
	return &signal, nil
}

func (r *Repository) ListSignals(status string) ([]Signal, error) {
	var signals []Signal
	q := r.db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&signals).Error
	return signals, err
}

// Portfolio Snapshots

func (r *Repository) SavePortfolioSnapshot(snapshot *PortfolioSnapshot) error {
	return r.db.Create(snapshot).Error
}

func (r *Repository) GetLatestSnapshot() (*PortfolioSnapshot, error) {
	var snapshot PortfolioSnapshot
	if err := r.db.Order("created_at DESC").First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}
