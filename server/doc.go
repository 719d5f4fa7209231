// Package server is the HTTP JSON API of the authoritative store.
//
// Routes (base /api):
//
//	GET    /books            all books, newest first
//	GET    /students         all loans, newest first
//	POST   /books            add a book            201, 400 invalid, 409 duplicate id
//	POST   /issue            lend a book           200, 400 invalid, 404 unknown book, 409 already issued
//	POST   /return           take a book back      200, 404 no loan
//	DELETE /books/{id}       delete a book         200, 404 unknown book
//	POST   /login            check credentials     200, 401
//	POST   /reset-password   replace credentials   200, 400, 401
//
// Writes carrying an Idempotency-Key header are executed once; repeating them replays
// the first response with X-Idempotency-Replayed: true.
package server
