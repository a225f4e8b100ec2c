package model

import (
	"time"
	"unicode/utf8"
)

type JobType string

const (
	JobTypeExportOrders   JobType = "EXPORT_ORDERS"
	JobTypeImportProducts JobType = "IMPORT_PRODUCTS"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// errorの保存上限
const JobErrorMaxLen = 4000

// 非同期ジョブ。IDは連番にしない（推測防止でUUID）。
// 遷移はPENDING→RUNNING→{SUCCESS|FAILED}の一方向のみ。
type AsyncJob struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Type        JobType    `gorm:"type:varchar(64);not null" json:"type"`
	Status      JobStatus  `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	InputParams string     `gorm:"type:jsonb;not null;default:'{}'" json:"input_params"`
	ResultURL   string     `gorm:"type:varchar(512)" json:"result_url"`
	Error       string     `gorm:"type:text" json:"error"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at"`
}

// 終端状態か
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// エラーメッセージを保存上限まで切り詰める。
// メッセージにはキリル文字も入るので、マルチバイト文字の途中では切らない。
func TruncateJobError(msg string) string {
	if len(msg) <= JobErrorMaxLen {
		return msg
	}
	cut := JobErrorMaxLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
