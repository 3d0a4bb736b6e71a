// Package env provides the environment collaborators that hand a graph
// snapshot to the core: snapshot files, sqlite databases, a redis-backed
// feed source and a synthetic generator.
//
// A snapshot is the initial nodes, links and groups plus a finite feed of
// elements to add later. Feed entries are tagged with their kind:
//
//	nodes:
//	  - id: a
//	  - id: b
//	links:
//	  - {source: a, target: b, active: true}
//	groups:
//	  - {id: swarm, members: [a, b]}
//	feed:
//	  - {kind: node, id: c}
//	  - {kind: link, source: a, target: c}
//
// Layout state is never stored.
package env
