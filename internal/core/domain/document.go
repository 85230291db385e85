package domain

// TopicWikipedia labels documents fetched from the encyclopedia source.
const TopicWikipedia = "Wikipedia"

type Document struct {
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

// Chunk is a group of whole consecutive sentences from one document.
// ID is the chunk's position in the corpus-wide chunk list.
type Chunk struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Topic string `json:"topic"`
}
