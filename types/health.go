package types

import (
	"encoding/json"
	"sort"
	"time"
)

type HealthStatus string

const (
	Healthy   HealthStatus = "HEALTHY"
	Unhealthy HealthStatus = "UNHEALTHY"
)

// ServiceHealth carries Metrics when HEALTHY and Error otherwise. The JSON
// form and the stored form always have the matching key, even for a null body.
type ServiceHealth struct {
	Status    HealthStatus
	Timestamp time.Time
	Metrics   interface{}
	Error     string
}

func (s ServiceHealth) entry() map[string]interface{} {
	entry := map[string]interface{}{
		"status":    string(s.Status),
		"timestamp": s.Timestamp.Format(time.RFC3339Nano),
	}
	if s.Status == Healthy {
		entry["metrics"] = s.Metrics
	} else {
		entry["error"] = s.Error
	}
	return entry
}

func (s ServiceHealth) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.entry())
}

// HealthSnapshot maps a logical endpoint name to its health at check time.
type HealthSnapshot map[string]*ServiceHealth

// Document flattens the snapshot into the value stored for CLUSTER_HEALTH.
func (h HealthSnapshot) Document() Document {
	doc := make(Document, len(h))
	for name, s := range h {
		doc[name] = s.entry()
	}
	return doc
}

func (h HealthSnapshot) UnhealthyServices() []string {
	var names []string
	for name, s := range h {
		if s.Status != Healthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
