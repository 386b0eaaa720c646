// Package calendar manages myDo events in Google Calendar.
//
// A myDo is a calendar event tagged with the private extended property
// mydos=task. The title carries an emoji prefix for display, but only the
// property decides whether an event belongs to mydos, so externally created
// events that happen to share the prefix are never touched.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, calendar.Config{HTTPClient: authorized})
//	if err != nil {
//	    return err
//	}
//	cal, err := client.EnsureCalendar(ctx, "myDos", "America/Los_Angeles")
//	if err != nil {
//	    return err
//	}
//	todos, err := client.ListMyDos(ctx, cal.ID, time.Now(), loc)
package calendar
