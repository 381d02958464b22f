package model

import "time"

const (
	ImportRunning   = "running"
	ImportSucceeded = "succeeded"
	ImportFailed    = "failed"
)

// ImportStatus 单个 token 最近一次导入的状态
type ImportStatus struct {
	TokenID   string    `json:"tokenId"`
	State     string    `json:"state"`
	Message   string    `json:"message,omitempty"`
	Fetched   int       `json:"fetched"`
	Skipped   int       `json:"skipped"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
}

// ImportEvent 导入完成后投递到 kafka
type ImportEvent struct {
	TokenID     string    `json:"token_id"`
	TokenSymbol string    `json:"token_symbol"`
	Chain       string    `json:"chain"`
	Fetched     int       `json:"fetched"`
	Skipped     int       `json:"skipped"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Succeeded   bool      `json:"succeeded"`
	Error       string    `json:"error,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Snapshot 订阅推送的集合快照
type Snapshot struct {
	Collection string             `json:"collection"`
	Tokens     []TokenConfig      `json:"tokens,omitempty"`
	Addresses  []PromisingAddress `json:"addresses,omitempty"`
	At         time.Time          `json:"at"`
}

const (
	CollectionTokens    = "tokens"
	CollectionAddresses = "promising-addresses"
)
