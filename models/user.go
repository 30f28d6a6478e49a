package models

import "time"

// User is an account owning one synced collection of tab groups.
type User struct {
	UserID       int64      `json:"user_id"`
	Login        string     `json:"login"`
	Password     string     `json:"password,omitempty"`
	PasswordHash string     `json:"-"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Token is a signed bearer token together with the user it identifies.
type Token struct {
	SignedString string `json:"token"`
	UserID       int64  `json:"user_id"`
}
