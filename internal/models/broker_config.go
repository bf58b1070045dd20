package models

import "time"

// BrokerConfig представляет конфигурацию подключения к брокеру
// (broker_configs таблица).
//
// API ключи хранятся в БД в зашифрованном виде (AES-256-GCM) и никогда
// не возвращаются в JSON. Активной может быть только одна конфигурация.
type BrokerConfig struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"` // oanda, oanda-practice, ...
	APIURL      string    `json:"api_url" db:"api_url"`
	AccountID   string    `json:"account_id" db:"account_id"`
	APIKey      string    `json:"-" db:"api_key"`       // зашифрован
	APISecret   string    `json:"-" db:"api_secret"`    // зашифрован
	AccessToken string    `json:"-" db:"access_token"`  // зашифрован
	Active      bool      `json:"active" db:"active"`
	Testnet     bool      `json:"testnet" db:"testnet"` // practice/demo окружение
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
