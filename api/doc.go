// Package api serves scriptwriting sessions over HTTP for a UI.
//
// Every session owns one pipeline controller. Commands are plain JSON POSTs;
// the long ones (start, script) run in the background unless ?wait=true is
// given, and state changes are pushed through server-sent events (/events) or
// a websocket (/ws). Finished scripts can be exported and, when a store is
// configured, browsed under /api/scripts. /api/sessions/:id/timings reports
// how long each stage took and /api/graph draws the stage graphs.
package api
