// Package todo defines the task records shared by the task store, the cache
// and the request handler, together with the date arithmetic used to decide
// which tasks are due.
//
// A task's Date is either a bare date ("2006-01-02"), which marks an all-day
// task, or an RFC 3339 date-time. All "today" calculations are done in an
// explicit *time.Location rather than a fixed UTC offset so daylight saving
// transitions are honoured.
package todo
