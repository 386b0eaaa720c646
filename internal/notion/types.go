package notion

// Property names in the task database.
const (
	PropertyName = "Name"
	PropertyDate = "Date"
	PropertyDone = "Done"
	PropertyTags = "Tags"

	// HiddenTag excludes a task from the open task query.
	HiddenTag = "hidden"
)

type queryRequest struct {
	Filter      compoundFilter `json:"filter"`
	Sorts       []sortSpec     `json:"sorts"`
	PageSize    int            `json:"page_size,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
}

type compoundFilter struct {
	And []propertyFilter `json:"and"`
}

type propertyFilter struct {
	Property    string             `json:"property"`
	Checkbox    *checkboxCondition `json:"checkbox,omitempty"`
	Date        *dateCondition     `json:"date,omitempty"`
	MultiSelect *multiSelectFilter `json:"multi_select,omitempty"`
}

type checkboxCondition struct {
	Equals bool `json:"equals"`
}

type dateCondition struct {
	Before string `json:"before"`
}

type multiSelectFilter struct {
	DoesNotContain string `json:"does_not_contain"`
}

type sortSpec struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Properties pageProperties `json:"properties"`
}

type pageProperties struct {
	Name titleProperty    `json:"Name"`
	Date dateProperty     `json:"Date"`
	Done checkboxProperty `json:"Done"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

type richText struct {
	Text      textContent `json:"text"`
	PlainText string      `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type dateProperty struct {
	Date *dateValue `json:"date"`
}

// dateValue is written with an explicit null end so a reschedule to an
// all-day date clears any previous end time.
type dateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

type checkboxProperty struct {
	Checkbox bool `json:"checkbox"`
}

type createPageRequest struct {
	Parent     parent           `json:"parent"`
	Properties createProperties `json:"properties"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type createProperties struct {
	Name titleProperty `json:"Name"`
	Date dateProperty  `json:"Date"`
}

type markDoneProperties struct {
	Done checkboxProperty `json:"Done"`
}

type rescheduleProperties struct {
	Date dateProperty `json:"Date"`
}

type updatePageRequest struct {
	Properties interface{} `json:"properties"`
}

// errorResponse is the body Notion returns with a non-2xx status.
type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
