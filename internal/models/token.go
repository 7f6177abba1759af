package models

import "time"

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
