// Package http provides HTTP handlers and middleware for the practice matcher API.
//
// Every route sits behind RequireIdentity, which reads the caller identity from
// the trusted `X-Profile-ID` and `X-Privileged` headers set by the access gate
// in front of the service.
//
// The router exposes the following endpoints:
//   - GET /profiles/{profileID}/preferences, PUT /profiles/{profileID}/preferences:
//     read and wholesale-replace a dancer's matching preferences, exchanging the
//     `preferenceDTO` payload defined in preference_handler.go. Availability
//     windows use HH:MM clock strings and uppercase weekday names.
//   - POST /blocks, DELETE /blocks/{blockedID}: manage the caller's block list.
//   - GET /matches: ranked partner candidates for the caller, with an optional
//     `limit` query parameter. GET /matches/{candidateID}/suggestions returns
//     concrete shared availability windows for one candidate.
//   - POST /invites: propose a practice session to another dancer, creating a
//     pending invite and its backing session. POST /invites/{inviteID}/response
//     accepts, declines, or cancels a pending invite. GET /invites lists the
//     caller's invite threads and GET /invites/{inviteID} fetches one.
//     POST /invites/expire is a privileged sweep of overdue pending invites.
//   - POST /sessions, GET /sessions, GET /sessions/{sessionID},
//     PUT /sessions/{sessionID}: session management exchanging the `sessionDTO`
//     payload defined in session_handler.go. POST /sessions/{sessionID}/cancel
//     and /complete drive the session lifecycle. POST and DELETE on
//     /sessions/{sessionID}/participants join and leave a session, and
//     GET /sessions/{sessionID}/joinable reports whether a join could
//     currently succeed.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
