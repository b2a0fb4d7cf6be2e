// Package database wraps gorm with connection retry, pool sizing, a
// logger adapter, transactions and a lifecycle component.
//
// The driver is chosen by configuration: "sqlite" (also used by tests with
// an in-memory DSN) or "postgres". Connections are opened with
// TranslateError enabled so unique violations surface as
// gorm.ErrDuplicatedKey.
package database
