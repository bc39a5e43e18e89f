package gathercontent

import (
	"strconv"
	"time"
)

// Template is a GatherContent template as returned by the templates list.
type Template struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	NumberOfItemsUsing int    `json:"number_of_items_using"`
	StructureUUID      string `json:"structure_uuid"`
	ProjectID          int64  `json:"project_id"`
	UpdatedAt          string `json:"updated_at"`
	UpdatedBy          int64  `json:"updated_by"`
}

// Field describes one template field.
type Field struct {
	UUID         string         `json:"uuid"`
	FieldType    string         `json:"field_type"`
	Label        string         `json:"label"`
	Instructions string         `json:"instructions,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Group is a tab of fields inside a structure.
type Group struct {
	UUID   string  `json:"uuid"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Structure is the template layout included with ?include=structure.
type Structure struct {
	UUID   string  `json:"uuid"`
	Groups []Group `json:"groups"`
}

// MappedField pairs a field's metadata with the item's value for it.
type MappedField struct {
	Field
	Value any `json:"value"`
}

// Item is a GatherContent item. Content is keyed by field UUID;
// MappedContent is keyed by the camel-cased field label and is only
// populated when the structure was requested.
type Item struct {
	ID                             int64                  `json:"id"`
	ProjectID                      int64                  `json:"project_id"`
	StatusID                       int64                  `json:"status_id"`
	FolderUUID                     string                 `json:"folder_uuid"`
	TemplateID                     int64                  `json:"template_id"`
	StructureUUID                  string                 `json:"structure_uuid"`
	Position                       int                    `json:"position"`
	Name                           string                 `json:"name"`
	ArchivedBy                     *int64                 `json:"archived_by"`
	ArchivedAt                     *string                `json:"archived_at"`
	CreatedAt                      string                 `json:"created_at"`
	UpdatedAt                      string                 `json:"updated_at"`
	NextDueAt                      string                 `json:"next_due_at,omitempty"`
	CompletedAt                    *string                `json:"completed_at"`
	AssignedUserIDs                []int64                `json:"assigned_user_ids,omitempty"`
	AssigneeCount                  int                    `json:"assignee_count"`
	CurrentWorkflowAssignedUserIDs []int64                `json:"current_workflow_assigned_user_ids,omitempty"`
	Content                        map[string]any         `json:"content,omitempty"`
	Structure                      *Structure             `json:"structure,omitempty"`
	MappedContent                  map[string]MappedField `json:"mappedContent,omitempty"`
}

// IDString returns the item id in the form used by parameter values.
func (i Item) IDString() string {
	return strconv.FormatInt(i.ID, 10)
}

// FailedItem records an item that could not be fetched.
type FailedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ItemsQuery selects items for GetItems.
type ItemsQuery struct {
	ItemIDs      []int64
	TemplateIDs  []int64
	NameContains string

	// IncludeContent costs one request per id in ItemIDs because the
	// list endpoint does not return field content.
	IncludeContent bool
}

// ItemsResult is the outcome of GetItems. FailedItems is only populated
// for content-inclusive queries.
type ItemsResult struct {
	Items       []Item       `json:"items"`
	FailedItems []FailedItem `json:"failedItems,omitempty"`
}

// Entry is the CMS-neutral form of an item handed to renderers.
type Entry struct {
	ID            string         `json:"id"`
	CMSID         string         `json:"cmsId"`
	LastModified  time.Time      `json:"lastModified"`
	Data          map[string]any `json:"data"`
	ContentTypeID int64          `json:"contentTypeId"`
	EditEndpoint  string         `json:"editEndpoint"`
}

// Entry normalizes the item. Data carries name and id plus the mapped
// field values, or the raw content when no structure was fetched.
func (i Item) Entry() Entry {
	id := i.IDString()
	data := map[string]any{
		"name": i.Name,
		"id":   id,
	}
	if len(i.MappedContent) > 0 {
		for key, field := range i.MappedContent {
			data[key] = field.Value
		}
	} else {
		for key, value := range i.Content {
			data[key] = value
		}
	}

	var lastModified time.Time
	if parsed, err := time.Parse(time.RFC3339, i.UpdatedAt); err == nil {
		lastModified = parsed
	}

	return Entry{
		ID:            id,
		CMSID:         id,
		LastModified:  lastModified,
		Data:          data,
		ContentTypeID: i.TemplateID,
		EditEndpoint:  "item/" + id,
	}
}
