// Package notion provides a client for the Notion pages and database query
// APIs, scoped to a single task database.
//
// Tasks are pages with a Name title, a Date property, a Done checkbox and a
// Tags multi-select. The client reads the open tasks due by the end of today,
// creates new tasks dated today, marks tasks done and reschedules them.
//
// Example usage:
//
//	client, err := notion.NewClient(notion.Config{
//	    APIKey:     os.Getenv("NOTION_API_KEY"),
//	    DatabaseID: os.Getenv("NOTION_DATABASE_ID"),
//	    Location:   loc,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tasks, err := client.FetchOpenTasks(ctx)
package notion
