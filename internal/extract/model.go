package extract

// Document is the normalized result of extracting one source file.
type Document struct {
	FileName   string      `json:"file_name"`
	TotalPages int         `json:"total_pages"`
	RawText    string      `json:"raw_text"`
	Sections   []Section   `json:"sections"`
	CodeBlocks []CodeBlock `json:"code_blocks"`
	Metadata   Metadata    `json:"metadata"`
}

// Section is a heading plus the content that follows it up to the next heading.
type Section struct {
	Heading    string `json:"heading"`
	Level      int    `json:"level"`
	Content    string `json:"content"`
	PageNumber int    `json:"page_number"`
	HasCode    bool   `json:"has_code"`
	HasList    bool   `json:"has_list"`
	Complexity int    `json:"estimated_complexity"`
}

// CodeBlock is a run of code found inside a section.
type CodeBlock struct {
	Language       *string `json:"language"`
	Content        string  `json:"content"`
	ContextHeading string  `json:"context_heading"`
	PageNumber     int     `json:"page_number"`
}

// Metadata summarizes the document.
type Metadata struct {
	Title             *string  `json:"title"`
	Author            *string  `json:"author"`
	PageCount         int      `json:"page_count"`
	WordCount         int      `json:"word_count"`
	DetectedLanguages []string `json:"detected_languages"`
	DetectedTopics    []string `json:"detected_topics"`
}
