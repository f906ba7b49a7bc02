// Package tree walks decision trees for inspection.
//
// The walk is a depth-first traversal that carries a per-path visited set:
// a node reachable through two branches is visited once per branch, while an
// edge back to an ancestor on the current path ends in a cycle marker.
// Missing nodes and paths deeper than MaxDepth end in their own markers.
// Nothing in this package returns an error for malformed trees.
package tree
