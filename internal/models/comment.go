package models

import "time"

type Comment struct {
	ID        int64
	Content   string
	TaskID    int64
	UserID    string
	CreatedAt time.Time
}
