package util

import (
	"time"

	"hadoop_monitor/config"

	"github.com/go-resty/resty/v2"
)

// NewRestyClient builds the client shared by every endpoint fetch. No
// authentication is attached; a zero timeout keeps the transport default.
func NewRestyClient(c config.HTTP) *resty.Client {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(c.RetryCount)
	if c.TimeoutSec > 0 {
		client.SetTimeout(time.Duration(c.TimeoutSec) * time.Second)
	}
	if c.RetryWaitSec > 0 {
		client.SetRetryWaitTime(time.Duration(c.RetryWaitSec) * time.Second)
	}
	return client
}
