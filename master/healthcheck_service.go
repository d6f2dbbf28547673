package master

import (
	"context"
	"fmt"
	"time"

	"hadoop_monitor/config"
	"hadoop_monitor/jmx"
	"hadoop_monitor/types"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// HealthCheckService probes every registered endpoint. Endpoints are checked
// one after another and a failure never skips the rest.
type HealthCheckService struct {
	Endpoints   []types.Endpoint
	restyClient *resty.Client
}

func NewHealthCheckService(registry *config.Registry, client *resty.Client) *HealthCheckService {
	return &HealthCheckService{
		Endpoints:   registry.Endpoints(),
		restyClient: client,
	}
}

func (hs *HealthCheckService) CheckHealth(ctx context.Context) types.HealthSnapshot {
	snapshot := make(types.HealthSnapshot, len(hs.Endpoints))
	for _, endpoint := range hs.Endpoints {
		snapshot[endpoint.Name] = hs.checkEndpoint(ctx, endpoint)
	}
	return snapshot
}

func (hs *HealthCheckService) checkEndpoint(ctx context.Context, endpoint types.Endpoint) *types.ServiceHealth {
	resp, err := hs.restyClient.R().SetContext(ctx).Get(endpoint.URL)
	now := time.Now().UTC()
	if err != nil {
		log.WithFields(log.Fields{"service": endpoint.Name, "url": endpoint.URL}).
			Errorf("Failed to check %s health: %v", endpoint.Name, err)
		return &types.ServiceHealth{Status: types.Unhealthy, Timestamp: now, Error: err.Error()}
	}
	if !resp.IsSuccess() {
		return &types.ServiceHealth{
			Status:    types.Unhealthy,
			Timestamp: now,
			Error:     fmt.Sprintf("HTTP %d", resp.StatusCode()),
		}
	}

	var metrics interface{}
	if decoded, err := jmx.Decode(resp.Body()); err == nil {
		metrics = decoded
	} else {
		log.WithField("service", endpoint.Name).Debugf("health body is not JSON: %v", err)
		metrics = string(resp.Body())
	}
	return &types.ServiceHealth{Status: types.Healthy, Timestamp: now, Metrics: metrics}
}
