// Package spies provides observability test doubles that capture log records, metrics, and spans.
package spies
