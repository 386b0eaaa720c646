// Package cache stores the most recent open task list as a single JSON blob
// under a constant key.
//
// Two backends implement Store: SupabaseStore, a row in a Supabase
// (PostgREST) table, and ValkeyStore, a plain Valkey or Redis key. An absent
// entry is a normal state. Persist replaces any existing entry.
package cache
