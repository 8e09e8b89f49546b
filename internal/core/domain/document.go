package domain

// Table is an ordered sequence of rows, each an ordered sequence of cell
// strings, as produced by the PDF table provider.
type Table [][]string

// ParsedPage is one page of provider output.
type ParsedPage struct {
	PageNumber int     `json:"pageNumber"`
	Text       string  `json:"text"`
	Tables     []Table `json:"tables"`
}

// ParsedDocument is the structured output of the PDF text/table provider.
type ParsedDocument struct {
	FullText  string       `json:"fullText"`
	Pages     []ParsedPage `json:"pages"`
	PageCount int          `json:"pageCount"`
}
