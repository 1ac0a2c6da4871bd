package model

import "time"

type PathQuery struct {
	Id        int64     `xorm:"pk autoincr BIGINT(20)" json:"id"`
	StartR    int       `xorm:"not null INT(11)" json:"start_r"`
	StartC    int       `xorm:"not null INT(11)" json:"start_c"`
	GoalR     int       `xorm:"not null INT(11)" json:"goal_r"`
	GoalC     int       `xorm:"not null INT(11)" json:"goal_c"`
	Rows      int       `xorm:"not null INT(11)" json:"rows"`
	Cols      int       `xorm:"not null INT(11)" json:"cols"`
	Mode      string    `xorm:"not null VARCHAR(8)" json:"mode"`
	Found     bool      `xorm:"not null TINYINT(1)" json:"found"`
	Cached    bool      `xorm:"not null TINYINT(1)" json:"cached"`
	Length    int       `xorm:"not null INT(11)" json:"length"`
	Cost      float64   `xorm:"not null DOUBLE" json:"cost"`
	Expanded  int       `xorm:"not null INT(11)" json:"expanded"`
	ElapsedUs int64     `xorm:"not null BIGINT(20)" json:"elapsed_us"`
	CreatedAt time.Time `xorm:"not null index DATETIME" json:"created_at"`
}
