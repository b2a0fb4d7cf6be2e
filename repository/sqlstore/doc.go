// Package sqlstore implements the repository backends on gorm, for SQLite
// and PostgreSQL. Unique indexes provide atomic create; token reads filter
// on expires_at and Sweep purges what the filter hides.
package sqlstore
