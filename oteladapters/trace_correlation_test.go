package oteladapters_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
	"github.com/AntonStoeckl/library-circulation-go/server"
	"github.com/AntonStoeckl/library-circulation-go/store"
	"github.com/AntonStoeckl/library-circulation-go/store/memstore"
)

func Test_TraceCorrelation_GatewayRequestsAreChildrenOfOperation(t *testing.T) {
	// arrange
	credentials, err := store.NewCredentialsWithCost(store.DefaultAdminUsername, store.DefaultAdminPassword, bcrypt.MinCost)
	require.NoError(t, err)
	srv := server.New(memstore.New(credentials))
	t.Cleanup(srv.Close)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tracing, exporter := newTracingCollector()
	client, err := remote.NewClient(ts.URL+"/api", remote.WithTracing(tracing))
	require.NoError(t, err)
	svc := lending.NewService(client, lending.WithTracing(tracing))

	// act
	err = svc.AddBook(context.Background(), 1, "The Hobbit", "J.R.R. Tolkien")

	// assert
	require.NoError(t, err)

	spans := exporter.GetSpans()
	var operation tracetestSpan
	var requests []tracetestSpan
	for _, span := range spans {
		switch span.Name {
		case lending.SpanNameOperation:
			operation = tracetestSpan{span.SpanContext.SpanID().String(), span.Parent.SpanID().String(), span.Status.Code}
		case remote.SpanNameRequest:
			requests = append(requests, tracetestSpan{span.SpanContext.SpanID().String(), span.Parent.SpanID().String(), span.Status.Code})
		}
	}

	assert.Equal(t, codes.Ok, operation.code)
	require.Len(t, requests, 2, "create_book and the catalog refresh")
	for _, request := range requests {
		assert.Equal(t, operation.id, request.parent)
	}
}

type tracetestSpan struct {
	id     string
	parent string
	code   codes.Code
}
