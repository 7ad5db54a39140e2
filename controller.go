// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"context"
	"fmt"
	"net/http"
)

// ControllerInfo is the unauthenticated controller description from /api/info
type ControllerInfo struct {
	ControllerID string `json:"omadacId"`
	Version      string `json:"controllerVer"`
	APIVersion   string `json:"apiVer"`
	Configured   bool   `json:"configured"`
	Type         int    `json:"type"`
}

// Site is a site the logged-in user has access to
type Site struct {
	ID   string `json:"key"`
	Name string `json:"name"`
}

// ControllerInfo fetches the controller id and version
//
// The endpoint needs no session. The result is cached on the client and
// refreshed on every login.
func (c *Client) ControllerInfo(ctx context.Context) (ControllerInfo, error) {
	if err := checkContextCancellation(ctx); err != nil {
		return ControllerInfo{}, err
	}

	res, err := c.attempt(ctx, nil, newReq(http.MethodGet, "api/info"))
	if err != nil {
		return ControllerInfo{}, err
	}

	var info ControllerInfo
	if err := res.Decode(&info); err != nil {
		return ControllerInfo{}, &APIError{
			Operation:   "GET api/info",
			StatusCode:  res.StatusCode,
			Message:     "malformed controller info",
			InternalMsg: err.Error(),
		}
	}
	if info.ControllerID == "" {
		return ControllerInfo{}, &APIError{
			Operation:  "GET api/info",
			StatusCode: res.StatusCode,
			Message:    "controller info did not include omadacId",
		}
	}

	c.mu.Lock()
	c.info = &info
	c.mu.Unlock()

	return info, nil
}

// ControllerName returns the display name configured on the controller
func (c *Client) ControllerName(ctx context.Context) (string, error) {
	res, err := c.Get(ctx, "maintenance/uiInterface")
	if err != nil {
		return "", err
	}
	return res.GetValue("controllerName").String(), nil
}

// Sites lists the sites the logged-in user can access
func (c *Client) Sites(ctx context.Context) ([]Site, error) {
	res, err := c.Get(ctx, "users/current")
	if err != nil {
		return nil, err
	}

	var sites []Site
	if raw := res.GetValue("privilege.sites"); raw.Exists() {
		if err := decodeRaw(raw.Raw, &sites); err != nil {
			return nil, fmt.Errorf("failed to decode sites: %w", err)
		}
	}
	return sites, nil
}

// Site returns a client scoped to the site with the given name or id
//
// The lookup is a single authenticated call. ErrSiteNotFound is returned
// when the user has no site of that name.
func (c *Client) Site(ctx context.Context, nameOrID string) (*SiteClient, error) {
	sites, err := c.Sites(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sites {
		if s.Name == nameOrID || s.ID == nameOrID {
			return c.SiteByID(s.ID), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSiteNotFound, nameOrID)
}

// SiteByID returns a client scoped to a site id without checking that it exists
func (c *Client) SiteByID(siteID string) *SiteClient {
	return &SiteClient{client: c, siteID: siteID}
}
