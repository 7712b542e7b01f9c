package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// AjaxClient speaks the {action, nonce} request / {success, data} response
// contract of the aggregation endpoint.
// -----------------------------------------------------------------------------

type AjaxClient struct {
	Endpoint models.MEndpointConfig
	Network  interfaces.INetworkManager
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAjaxClient(endpoint models.MEndpointConfig, nm interfaces.INetworkManager, log *logger.Logger) *AjaxClient {
	return &AjaxClient{
		Endpoint: endpoint,
		Network:  nm,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Call sends one action and returns the data of a successful envelope.
// Errors are *helpers.TransportError or *helpers.ApplicationError.
func (c *AjaxClient) Call(ctx context.Context, action string, fields map[string]string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("action", action)
	form.Set("nonce", c.Endpoint.Nonce)
	for k, v := range fields {
		form.Set(k, v)
	}

	body, err := c.Network.PostForm(ctx, c.Endpoint.URL, form)
	if err != nil {
		return nil, helpers.NewTransportError(action, err)
	}

	var env models.MEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, helpers.NewTransportError(action, fmt.Errorf("malformed response: %w", err))
	}

	if !env.Success {
		msg := env.FailureMessage()
		c.Logger.Debug("Action %s rejected: %q", action, msg)
		return nil, helpers.NewApplicationError(msg)
	}

	return env.Data, nil
}

// -----------------------------------------------------------------------------

// FetchSnapshot issues the aggregation request. An undecodable snapshot is an
// application failure: the snapshot is atomic, so nothing of it is used.
func (c *AjaxClient) FetchSnapshot(ctx context.Context) (*models.MDashboardSnapshot, error) {
	data, err := c.Call(ctx, c.Endpoint.AggregateAction, nil)
	if err != nil {
		return nil, err
	}

	var snap models.MDashboardSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.Logger.Warning("Discarding malformed snapshot: %v", err)
		return nil, &helpers.ApplicationError{DashboardError: helpers.DashboardError{Cause: err}}
	}
	return &snap, nil
}

// -----------------------------------------------------------------------------

func (c *AjaxClient) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := c.Call(ctx, c.Endpoint.OrderStatusAction, map[string]string{
		"order_id": strconv.FormatInt(orderID, 10),
		"status":   status,
	})
	return err
}

// -----------------------------------------------------------------------------

func (c *AjaxClient) UpdateAgentStatus(ctx context.Context, agentID int64, status string) error {
	_, err := c.Call(ctx, c.Endpoint.AgentStatusAction, map[string]string{
		"agent_id": strconv.FormatInt(agentID, 10),
		"status":   status,
	})
	return err
}
