// Package fileparse provides a small configurable parser for
// line-oriented system files such as /etc/os-release and persisted
// profile snapshots.
package fileparse
