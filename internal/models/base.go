// Package models 回合记录的数据模型
package models

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BaseModel 公共字段
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarshalDoc 用包内统一的编解码器序列化
func MarshalDoc(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalDoc 用包内统一的编解码器反序列化
func UnmarshalDoc(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
