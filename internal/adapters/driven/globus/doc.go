// Package globus implements driven.SearchIndex against the Globus Search v1 API.
//
// Requests go through an authenticated *http.Client (see package auth) and a
// token-bucket throttle. Failures are returned as *domain.RemoteIndexError
// carrying the code, message and raw body Globus sent back.
package globus
