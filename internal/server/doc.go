// Package server is the HTTP front end of uxaudit.
//
// It serves a small web page, streams the progress of an audit as
// server-sent events on /api/stream and hands out finished reports on
// /api/download/:ref.
package server
