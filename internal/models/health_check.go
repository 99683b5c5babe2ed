package models

import "time"

type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Generator string            `json:"generator"`
	Services  map[string]string `json:"services"`
}
