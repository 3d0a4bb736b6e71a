// Package server exposes a running layout over HTTP.
//
// Every handler reaches the simulation through clock.Loop.Do, so requests
// never race the frame callback or the feed interval:
//
//	GET    /frame.svg            current drawables as an SVG document
//	GET    /graph                JSON status: frames, alpha, counts, feed
//	POST   /nodes/{id}/pin       pin a node where it is rendered
//	PUT    /nodes/{id}/pin?x=&y= move a node's pin (screen coordinates)
//	DELETE /nodes/{id}/pin       release a pin
//	DELETE /nodes/{id}           remove a node with its links
//	GET    /metrics              Prometheus exposition
//	GET    /healthz              liveness
package server
