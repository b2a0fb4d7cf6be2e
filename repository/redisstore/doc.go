// Package redisstore keeps access tokens and authorization codes in Redis.
// Entries are written with SET NX and a TTL derived from their expiry, so
// Redis drops them on its own and no sweeping is needed. Codes are consumed
// with GETDEL.
package redisstore
