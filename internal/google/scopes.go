package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested by the calendar commands.
// Full calendar access is needed to create the myDos calendar and its events.
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
}

// ReadOnlyOAuthScopes only allow calendar discovery and event listing.
var ReadOnlyOAuthScopes = []string{
	calendar.CalendarReadonlyScope,
}
