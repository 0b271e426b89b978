package qc

import "time"

type User struct {
	ID          uint      `gorm:"column:id_user;primaryKey;autoIncrement" json:"-"`
	Username    string    `gorm:"column:username;size:255;not null;uniqueIndex:unique_user" json:"username"`
	IsCurrent   bool      `gorm:"column:iscurrent;not null" json:"iscurrent"`
	DateCreated time.Time `gorm:"column:date_created;not null" json:"date_created"`
	DateUpdated time.Time `gorm:"column:date_updated;not null" json:"date_updated"`
}

func (User) TableName() string { return "user" }
