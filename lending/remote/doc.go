// Package remote implements lending.Gateway against the HTTP JSON API of the remote store.
//
// The wire types in wire.go are shared with package server, which serves the same API.
package remote
