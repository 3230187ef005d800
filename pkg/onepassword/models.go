package onepassword

type BaseType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	BaseType
	Email string `json:"email"`
	Type  string `json:"type"`
	State string `json:"state"`
}

type Group struct {
	BaseType
	Description string `json:"description,omitempty"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
}

type Vault struct {
	BaseType
	ContentVersion int `json:"content_version"`
}

type AuthResponse struct {
	URL         string `json:"url"`
	Email       string `json:"email"`
	UserUUID    string `json:"user_uuid"`
	AccountUUID string `json:"account_uuid"`
	Shorthand   string `json:"shorthand"`
}

// Item is the CLI's representation of a created item.
type Item struct {
	BaseType
	Title    string `json:"title"`
	Category string `json:"category"`
	Vault    struct {
		ID string `json:"id"`
	} `json:"vault"`
}

// ItemTemplate is the JSON template piped to `op item create`.
type ItemTemplate struct {
	Title    string      `json:"title"`
	Category string      `json:"category"`
	URLs     []ItemURL   `json:"urls,omitempty"`
	Tags     []string    `json:"tags,omitempty"`
	Fields   []ItemField `json:"fields"`
}

type ItemURL struct {
	Label   string `json:"label"`
	Primary bool   `json:"primary"`
	Href    string `json:"href"`
}

type ItemField struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Purpose string       `json:"purpose,omitempty"`
	Label   string       `json:"label"`
	Value   string       `json:"value"`
	Section *ItemSection `json:"section,omitempty"`
}

type ItemSection struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FileAttachment is a materialized file to upload alongside an item.
type FileAttachment struct {
	Name string
	Path string
}

// ItemCreateParams is one item-creation request within a batch.
type ItemCreateParams struct {
	Template ItemTemplate
	Files    []FileAttachment
}

// ItemResult is the per-item outcome of a batch create, aligned positionally
// with the request list.
type ItemResult struct {
	ItemID string
	Title  string
	Err    error
}
