package models

// Chunk is one piece of a document's extracted text, as produced by the
// splitter and indexed for retrieval. Serialized with msgpack for the
// on-disk chunk index, JSON for the API.
type Chunk struct {
	Index  int    `json:"index" msgpack:"index"`
	Text   string `json:"text" msgpack:"text"`
	Tokens int    `json:"tokens" msgpack:"tokens"`
}
