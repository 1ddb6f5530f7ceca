// dcare-crm/models/activity_log.go

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Действия, которые пишутся в журнал активности. Список не закрытый:
// журнал принимает любые строки, константы покрывают то, что пишет бэкенд.
const (
	ActionPatientCreate       = "patient_create"
	ActionPatientUpdate       = "patient_update"
	ActionPatientDelete       = "patient_delete"
	ActionPatientView         = "patient_view"
	ActionPatientStatusChange = "patient_status_change"
	ActionPatientComplete     = "patient_complete"
	ActionVisitConfirmToggle  = "visit_confirmation_toggle"
	ActionCallbackCreate      = "callback_create"
	ActionCallbackComplete    = "callback_complete"
	ActionCallbackCancel      = "callback_cancel"
	ActionMessageLogView      = "message_log_view"
	ActionLogin               = "login"
	ActionLogout              = "logout"
)

// JSONMap - произвольные детали события в JSONB-колонке.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *JSONMap) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// ActivityLog - запись журнала действий пользователей консоли.
type ActivityLog struct {
	gorm.Model
	Action     string    `json:"action" gorm:"index"`
	Target     string    `json:"target"` // patient / callback / message ...
	TargetID   string    `json:"targetId" gorm:"index"`
	TargetName string    `json:"targetName"`
	UserID     string    `json:"userId" gorm:"index"`
	UserName   string    `json:"userName"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
	Details    JSONMap   `json:"details" gorm:"type:jsonb"`
}
