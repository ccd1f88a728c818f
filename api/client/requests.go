package client

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/vocdoni/albatross-zkp/api"
	"github.com/vocdoni/albatross-zkp/lightclient"
)

// getJSON performs a GET request and decodes the JSON response into out.
func (c *HTTPclient) getJSON(out any, urlPath ...string) error {
	data, err := c.get(urlPath...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

// State returns the latest proven state.
func (c *HTTPclient) State() (*api.StateResponse, error) {
	resp := &api.StateResponse{}
	if err := c.getJSON(resp, api.StateEndpoint); err != nil {
		return nil, err
	}
	return resp, nil
}

// Export returns the light client export of the latest aggregate proof.
func (c *HTTPclient) Export() (*lightclient.Export, error) {
	resp := &lightclient.Export{}
	if err := c.getJSON(resp, api.ExportEndpoint); err != nil {
		return nil, err
	}
	return resp, nil
}

// VerifyingKey returns the verifying key of the merger role, A or B.
func (c *HTTPclient) VerifyingKey(role string) (*api.KeyResponse, error) {
	resp := &api.KeyResponse{}
	if err := c.getJSON(resp, "keys", role); err != nil {
		return nil, err
	}
	return resp, nil
}

// Checkpoint returns the checkpoint proof of the height.
func (c *HTTPclient) Checkpoint(height uint64) (*api.CheckpointResponse, error) {
	resp := &api.CheckpointResponse{}
	if err := c.getJSON(resp, "checkpoints", strconv.FormatUint(height, 10)); err != nil {
		return nil, err
	}
	return resp, nil
}

// Sync downloads the latest export and verifies it with the light client.
// It returns the verified export.
func (c *HTTPclient) Sync(lc *lightclient.Client, trustedGenesis *big.Int) (*lightclient.Export, error) {
	e, err := c.Export()
	if err != nil {
		return nil, err
	}
	if err := lc.Verify(e, trustedGenesis); err != nil {
		return nil, fmt.Errorf("export at height %d: %w", e.Height, err)
	}
	return e, nil
}
