package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalAchieved GoalStatus = "achieved"
	GoalFailed   GoalStatus = "failed"
)

// Goal is a savings target funded by monthly net profit from CreationPeriod on.
type Goal struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	TargetAmount   decimal.Decimal `json:"target_amount"`
	TargetDate     time.Time       `json:"target_date"`
	CreationPeriod Period          `json:"creation_period"`
	Status         GoalStatus      `json:"status"`
}
