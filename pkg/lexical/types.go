package lexical

// LexicalRoot represents the top-level structure of a serialized document.
type LexicalRoot struct {
	Root Node `json:"root"`
}

// Node represents any node in the Lexical tree.
type Node struct {
	Type     string `json:"type"`
	Version  int    `json:"version"`
	Children []Node `json:"children,omitempty"`

	// Text specific
	Text   string      `json:"text,omitempty"`
	Format interface{} `json:"format,omitempty"` // int bitmask for text, string alignment for blocks
	Style  string      `json:"style,omitempty"`
	Mode   string      `json:"mode,omitempty"`
	Detail int         `json:"detail,omitempty"`

	// Block specific
	Direction string `json:"direction,omitempty"`
	Indent    int    `json:"indent,omitempty"`

	// Link specific
	URL string `json:"url,omitempty"`

	// List specific
	ListType string `json:"listType,omitempty"` // check, bullet, number
	Start    int    `json:"start,omitempty"`
	Tag      string `json:"tag,omitempty"`

	// ListItem specific
	Checked bool `json:"checked,omitempty"`
	Value   int  `json:"value,omitempty"`
}
