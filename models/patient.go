// dcare-crm/models/patient.go

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PatientStatus - состояние лида в воронке консультаций. Значения хранятся
// так, как их вводит клиника (корейские метки из консоли).
type PatientStatus string

const (
	StatusProspect       PatientStatus = "잠재고객"   // потенциальный клиент
	StatusCallbackNeeded PatientStatus = "콜백필요"   // требуется повторный звонок
	StatusNoAnswer       PatientStatus = "부재중"    // не дозвонились
	StatusActive         PatientStatus = "활성고객"   // активный клиент
	StatusVIP            PatientStatus = "VIP"
	StatusReserved       PatientStatus = "예약확정"   // запись подтверждена
	StatusReReserved     PatientStatus = "재예약확정" // повторная запись подтверждена
	StatusClosed         PatientStatus = "종결"     // закрыт
)

// PostVisitStatus - состояние после визита. Имеет смысл только при
// VisitConfirmed == true.
type PostVisitStatus string

const (
	PostVisitNone         PostVisitStatus = ""
	PostVisitRecallNeeded PostVisitStatus = "재콜백필요" // нужен повторный звонок после визита
	PostVisitAgreed       PostVisitStatus = "치료동의"  // согласие на лечение
	PostVisitStarted      PostVisitStatus = "치료시작"  // лечение начато
	PostVisitClosed       PostVisitStatus = "종결"    // закрыт после визита
)

// CallbackStatus - состояние записи в истории обзвона.
type CallbackStatus string

const (
	CallbackScheduled CallbackStatus = "예정"
	CallbackDone      CallbackStatus = "완료"
	CallbackCancelled CallbackStatus = "취소"
	CallbackMissed    CallbackStatus = "부재중"
)

// CallbackKind - тип записи, назначается при создании. Маркеры закрытия
// (closure_marker) пишет система при терминальных событиях, это не реальные
// попытки дозвона.
type CallbackKind string

const (
	KindScheduled     CallbackKind = "scheduled"
	KindCompleted     CallbackKind = "completed"
	KindClosureMarker CallbackKind = "closure_marker"
)

// Callback - одна запись истории обзвона пациента.
type Callback struct {
	ID     string         `json:"id"`
	Date   string         `json:"date"` // YYYY-MM-DD
	Time   string         `json:"time,omitempty"`
	Status CallbackStatus `json:"status"`
	Kind   CallbackKind   `json:"kind,omitempty"`
	Type   string         `json:"type,omitempty"` // 1차, 2차, ...

	Notes       string     `json:"notes,omitempty"`
	ResultNotes string     `json:"resultNotes,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Устаревшие флаги из старых выгрузок. Новые записи получают Kind при
	// создании; эти поля нужны только чтобы корректно прочитать старые данные.
	IsCompletionRecord      bool `json:"isCompletionRecord,omitempty"`
	IsDirectVisitCompletion bool `json:"isDirectVisitCompletion,omitempty"`

	HandledBy     string `json:"handledBy,omitempty"`
	HandledByName string `json:"handledByName,omitempty"`
}

// EffectiveKind возвращает тип записи, выводя его из устаревших флагов,
// если Kind не был назначен при создании.
func (c *Callback) EffectiveKind() CallbackKind {
	if c.Kind != "" {
		return c.Kind
	}
	if c.IsCompletionRecord || c.IsDirectVisitCompletion {
		return KindClosureMarker
	}
	if c.Status == CallbackDone {
		return KindCompleted
	}
	return KindScheduled
}

// CallbackHistory хранится в одной JSONB-колонке.
type CallbackHistory []Callback

func (h CallbackHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	return string(b), err
}

func (h *CallbackHistory) Scan(value interface{}) error {
	return scanJSON(value, h)
}

// ConsultationInfo - данные телефонной консультации до визита.
type ConsultationInfo struct {
	EstimatedAmount   int64  `json:"estimatedAmount"`
	ConsultationDate  string `json:"consultationDate,omitempty"`
	ConsultationNotes string `json:"consultationNotes,omitempty"`
	TreatmentPlan     string `json:"treatmentPlan,omitempty"`
	EstimateAgreed    bool   `json:"estimateAgreed"`
}

func (i ConsultationInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(i)
	return string(b), err
}

func (i *ConsultationInfo) Scan(value interface{}) error {
	return scanJSON(value, i)
}

// EstimateInfo - смета, составленная после очного визита.
type EstimateInfo struct {
	RegularPrice    int64  `json:"regularPrice"`
	DiscountPrice   int64  `json:"discountPrice"`
	PatientReaction string `json:"patientReaction,omitempty"`
}

// TreatmentConsentInfo - данные согласия на лечение.
type TreatmentConsentInfo struct {
	TreatmentStartDate string `json:"treatmentStartDate,omitempty"` // YYYY-MM-DD
}

// PostVisitConsultation - данные очной консультации после визита.
type PostVisitConsultation struct {
	ConsultationContent  string                `json:"consultationContent,omitempty"`
	EstimateInfo         *EstimateInfo         `json:"estimateInfo,omitempty"`
	TreatmentConsentInfo *TreatmentConsentInfo `json:"treatmentConsentInfo,omitempty"`
}

func (p PostVisitConsultation) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

func (p *PostVisitConsultation) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// StringList хранится в JSONB-колонке (услуги, интересующие пациента).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Patient represents the patient record in the database. Производные
// значения (стадия воронки, группа выручки, просроченные звонки) НЕ
// хранятся - они каждый раз пересчитываются движком internal/funnel.
type Patient struct {
	gorm.Model
	PatientCode string `json:"patientId" gorm:"uniqueIndex"` // PT-XXXX
	Name        string `json:"name" gorm:"not null"`
	PhoneNumber string `json:"phoneNumber" gorm:"index"`
	Age         *int   `json:"age"`

	Province string `json:"province"`
	City     string `json:"city"`

	Status           PatientStatus `json:"status" gorm:"index"`
	ConsultationType string        `json:"consultationType"` // inbound / outbound
	ReferralSource   string        `json:"referralSource"`

	CallInDate       string `json:"callInDate"` // YYYY-MM-DD
	FirstConsultDate string `json:"firstConsultDate"`
	NextCallbackDate string `json:"nextCallbackDate"`

	InterestedServices StringList `json:"interestedServices" gorm:"type:jsonb"`
	Notes              string     `json:"notes"`

	// Терминальное закрытие. Независимо от Status/PostVisitStatus.
	IsCompleted     bool       `json:"isCompleted"`
	CompletedAt     *time.Time `json:"completedAt"`
	CompletedReason string     `json:"completedReason"`

	// Запись на визит.
	ReservationDate   string `json:"reservationDate"` // YYYY-MM-DD
	ReservationTime   string `json:"reservationTime"`
	IsPostReservation bool   `json:"isPostReservation"` // записан, но не пришёл

	// Визит и состояние после визита.
	VisitConfirmed  bool            `json:"visitConfirmed"`
	VisitDate       string          `json:"visitDate"`
	PostVisitStatus PostVisitStatus `json:"postVisitStatus"`

	// Источники оценки стоимости лечения (приоритет: смета после визита >
	// телефонная оценка > прямой ввод).
	Consultation          *ConsultationInfo      `json:"consultation" gorm:"type:jsonb"`
	PostVisitConsultation *PostVisitConsultation `json:"postVisitConsultation" gorm:"type:jsonb"`
	TreatmentCost         int64                  `json:"treatmentCost"`

	CallbackHistory CallbackHistory `json:"callbackHistory" gorm:"type:jsonb"`

	CreatedBy     string `json:"createdBy"`
	CreatedByName string `json:"createdByName"`
}

func scanJSON(value, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported type %T for JSONB scan", value)
	}
}
