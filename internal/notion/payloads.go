package notion

import (
	"fmt"
	"time"

	"github.com/teemow/mydos/internal/todo"
)

// openTasksQuery selects tasks that are not done, dated before the start of
// tomorrow in loc and not tagged hidden, oldest first.
func openTasksQuery(now time.Time, loc *time.Location) queryRequest {
	return queryRequest{
		Filter: compoundFilter{And: []propertyFilter{
			{Property: PropertyDone, Checkbox: &checkboxCondition{Equals: false}},
			{Property: PropertyDate, Date: &dateCondition{Before: todo.StartOfTomorrow(now, loc).Format(time.RFC3339)}},
			{Property: PropertyTags, MultiSelect: &multiSelectFilter{DoesNotContain: HiddenTag}},
		}},
		Sorts:    []sortSpec{{Property: PropertyDate, Direction: "ascending"}},
		PageSize: maxPageSize,
	}
}

func createTaskPayload(databaseID, name string, now time.Time, loc *time.Location) createPageRequest {
	return createPageRequest{
		Parent: parent{DatabaseID: databaseID},
		Properties: createProperties{
			Name: titleProperty{Title: []richText{{Text: textContent{Content: name}}}},
			Date: dateProperty{Date: &dateValue{Start: todo.Today(now, loc)}},
		},
	}
}

func markDonePayload() updatePageRequest {
	return updatePageRequest{Properties: markDoneProperties{Done: checkboxProperty{Checkbox: true}}}
}

// reschedulePayload builds the Date change for a reschedule.
// A start at exactly midnight, or a bare date, becomes an all-day date with
// no end. Otherwise the end is the explicit end or start plus DefaultDuration.
func reschedulePayload(startDate, endDate string, loc *time.Location) (updatePageRequest, error) {
	start, allDay, err := todo.ParseDate(startDate, loc)
	if err != nil {
		return updatePageRequest{}, fmt.Errorf("invalid start_date: %w", err)
	}

	if allDay || todo.IsMidnight(start) {
		return updatePageRequest{Properties: rescheduleProperties{
			Date: dateProperty{Date: &dateValue{Start: start.Format(todo.DateLayout)}},
		}}, nil
	}

	// Explicit values are sent as given; only the derived end is formatted.
	endStr := endDate
	if endDate != "" {
		if _, _, err := todo.ParseDate(endDate, loc); err != nil {
			return updatePageRequest{}, fmt.Errorf("invalid end_date: %w", err)
		}
	} else {
		endStr = start.Add(todo.DefaultDuration).Format(time.RFC3339Nano)
	}

	return updatePageRequest{Properties: rescheduleProperties{
		Date: dateProperty{Date: &dateValue{Start: startDate, End: &endStr}},
	}}, nil
}

func updatePayload(u todo.Update, loc *time.Location) (updatePageRequest, error) {
	if !u.IsReschedule() {
		return markDonePayload(), nil
	}
	return reschedulePayload(u.StartDate, u.EndDate, loc)
}

// toTask maps a page to a Task.
func toTask(p page) todo.Task {
	t := todo.Task{
		ID:          p.ID,
		URL:         p.URL,
		IsCompleted: p.Properties.Done.Checkbox,
	}
	if len(p.Properties.Name.Title) > 0 {
		first := p.Properties.Name.Title[0]
		t.Name = first.Text.Content
		if t.Name == "" {
			t.Name = first.PlainText
		}
	}
	if p.Properties.Date.Date != nil {
		t.Date = p.Properties.Date.Date.Start
	}
	return t
}
