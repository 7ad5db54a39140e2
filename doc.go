// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package omada is a client for the web API of TP-Link Omada SDN controllers.
//
// The Client is a session manager: it logs in lazily on the first
// authenticated call, shares a single login between concurrent callers, and
// re-authenticates exactly once when the controller reports the session as
// expired. Site-scoped operations (devices, switch and access point ports,
// gateway ports, clients) are available through a SiteClient.
//
// # Quick Start
//
//	client, err := omada.NewClient(
//	    "https://192.168.1.10:8043",
//	    omada.Username("admin"),
//	    omada.Password("secret"),
//	    omada.VerifyCertificate(false),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	site, err := client.Site(ctx, "Default")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	devices, err := site.Devices(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Println(d.Name, d.MAC, d.Status)
//	}
//
// # Raw Requests
//
// Endpoints without a typed wrapper are reachable through Get, Post, Patch,
// Put and Delete. Paths are relative to /{controllerId}/api/v2/ and the
// returned Res holds the unwrapped "result" member:
//
//	res, err := client.Get(ctx, "sites/"+site.ID()+"/setting/lan/networks",
//	    omada.Query("currentPage", "1"),
//	    omada.Query("currentPageSize", "100"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.GetValue("data.#.name").String())
//
// Use the Body builder for request payloads:
//
//	body := omada.Body{}.
//	    Set("name", "printer").
//	    Set("ipSetting.useFixedAddr", false)
//	_, err = client.Patch(ctx, "sites/"+site.ID()+"/clients/"+mac, omada.WithBody(body))
//
// # Error Handling
//
// Errors fall into four classes, matched with errors.As:
//
//   - *TransportError: the controller could not be reached or timed out
//   - *AuthError: the credentials were rejected, or a request was still
//     rejected after the single re-authentication
//   - *APIError: the controller answered with an error code or HTTP status
//   - *IncompatibleVersionError: the controller is older than MinControllerVersion
//
// Only session expiry is retried, and only once. Transport and API errors
// are returned as they occur.
//
// # Thread Safety
//
// Client and SiteClient are safe for concurrent use. Callers that find no
// live session wait for one shared login.
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package omada
