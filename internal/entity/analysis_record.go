package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// AnalysisRecord is one persisted analysis run.
type AnalysisRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Symbol         string         `gorm:"type:varchar(16);not null" json:"symbol"`
	Timeframe      string         `gorm:"type:varchar(8);not null" json:"timeframe"`
	Provider       string         `gorm:"type:varchar(32)" json:"provider"`
	Trend          string         `gorm:"type:varchar(16)" json:"trend"`
	PriceChangePct float64        `json:"price_change_pct"`
	RSI            float64        `json:"rsi"`
	Volatility     float64        `json:"volatility"`
	Headlines      pq.StringArray `gorm:"type:text[]" json:"headlines"`
	Metrics        datatypes.JSON `gorm:"type:jsonb" json:"metrics"`
	Insight        string         `gorm:"type:text" json:"insight"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the AnalysisRecord model.
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
